// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package wire

import (
	"encoding/json"
	"testing"
)

func TestDecodeJSONConfigs(t *testing.T) {
	body := []byte(`[{"kind":"internal","kv":{"cmd":"true"}}]`)
	cfgs, err := DecodeJSONConfigs(body)
	if err != nil {
		t.Fatalf("DecodeJSONConfigs: %v", err)
	}
	if len(cfgs) != 1 || cfgs[0].Kind != "internal" {
		t.Fatalf("cfgs = %+v", cfgs)
	}
}

func TestDecodeJSONConfigsRejectsMalformed(t *testing.T) {
	if _, err := DecodeJSONConfigs([]byte(`not json`)); err == nil {
		t.Fatalf("expected a validation error")
	}
}

func TestEncodeJSONError(t *testing.T) {
	var env struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(EncodeJSONError("not_found"), &env); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if env.Success || env.Error != "not_found" {
		t.Fatalf("env = %+v", env)
	}
}

func TestEncodeJSONOK(t *testing.T) {
	var env struct {
		Success bool `json:"success"`
		Pending int  `json:"pending"`
	}
	if err := json.Unmarshal(EncodeJSONOK(3), &env); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !env.Success || env.Pending != 3 {
		t.Fatalf("env = %+v", env)
	}
}
