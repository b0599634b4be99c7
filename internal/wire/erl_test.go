// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package wire

import "testing"

func TestDecodeConfigsList(t *testing.T) {
	cfgs, err := DecodeConfigs(`[{internal,[{cmd,"true"}]},{external,[{retries,3}]}]`)
	if err != nil {
		t.Fatalf("DecodeConfigs: %v", err)
	}
	if len(cfgs) != 2 {
		t.Fatalf("len(cfgs) = %d, want 2", len(cfgs))
	}
	if cfgs[0].Kind != "internal" || cfgs[0].KV[0].Key != "cmd" || cfgs[0].KV[0].Value != "true" {
		t.Fatalf("cfgs[0] = %+v", cfgs[0])
	}
	if cfgs[1].Kind != "external" || cfgs[1].KV[0].Key != "retries" || cfgs[1].KV[0].Value != int64(3) {
		t.Fatalf("cfgs[1] = %+v", cfgs[1])
	}
}

func TestDecodeConfigsEmptyBody(t *testing.T) {
	cfgs, err := DecodeConfigs("")
	if err != nil {
		t.Fatalf("DecodeConfigs: %v", err)
	}
	if cfgs != nil {
		t.Fatalf("cfgs = %v, want nil", cfgs)
	}
}

func TestDecodeConfigsRejectsTrailingData(t *testing.T) {
	if _, err := DecodeConfigs(`[{internal,[]}] garbage`); err == nil {
		t.Fatalf("expected an error for trailing data")
	}
}

func TestEncodeConfigsRoundTrip(t *testing.T) {
	cfgs, err := DecodeConfigs(`[{internal,[{cmd,"true"}]}]`)
	if err != nil {
		t.Fatalf("DecodeConfigs: %v", err)
	}
	encoded := EncodeConfigs(cfgs)
	decoded, err := DecodeConfigs(encoded)
	if err != nil {
		t.Fatalf("DecodeConfigs(encoded): %v, encoded = %s", err, encoded)
	}
	if len(decoded) != 1 || decoded[0].Kind != "internal" {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestEncodeErrorAndSuccess(t *testing.T) {
	if got := EncodeError("boom"); got != `{error,"boom"}` {
		t.Fatalf("EncodeError = %q", got)
	}
	if got := EncodeSuccess(); got != "{ok}" {
		t.Fatalf("EncodeSuccess = %q", got)
	}
}
