// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package wire

// This file implements the json wire format: requests are validated
// with fastjson.ValidateBytes before being unmarshalled, rejecting a
// malformed body before it reaches encoding/json.

import (
	"encoding/json"

	"github.com/jjeffery/kv" // MIT License
	"github.com/valyala/fastjson"

	"github.com/leaf-ai/batch-scheduler/internal/queue"
)

// jsonConfig is the wire shape of one service configuration.
type jsonConfig struct {
	Kind   string                 `json:"kind"`
	Inline map[string]interface{} `json:"inline,omitempty"`
	KV     map[string]interface{} `json:"kv,omitempty"`
}

func (c jsonConfig) toQueueConfig() queue.Config {
	out := queue.Config{Kind: c.Kind, Inline: c.Inline}
	for k, v := range c.KV {
		out.KV = append(out.KV, queue.KeyValue{Key: k, Value: v})
	}
	return out
}

func fromQueueConfig(c queue.Config) jsonConfig {
	out := jsonConfig{Kind: c.Kind, Inline: c.Inline}
	if len(c.KV) != 0 {
		out.KV = make(map[string]interface{}, len(c.KV))
		for _, pair := range c.KV {
			out.KV[pair.Key] = pair.Value
		}
	}
	return out
}

// DecodeJSONConfigs validates and unmarshals a json-format services_add
// request body into service configurations.
func DecodeJSONConfigs(body []byte) ([]queue.Config, kv.Error) {
	if len(body) == 0 {
		return nil, nil
	}
	if err := fastjson.ValidateBytes(body); err != nil {
		return nil, kv.Wrap(err).With("body", string(body))
	}
	var cfgs []jsonConfig
	if errGo := json.Unmarshal(body, &cfgs); errGo != nil {
		return nil, kv.Wrap(errGo).With("body", string(body))
	}
	out := make([]queue.Config, 0, len(cfgs))
	for _, c := range cfgs {
		out = append(out, c.toQueueConfig())
	}
	return out, nil
}

// jsonEnvelope is the `{"success": true|false, ...}` response shape.
type jsonEnvelope struct {
	Success bool         `json:"success"`
	Queue   []jsonConfig `json:"queue,omitempty"`
	Pending int          `json:"pending,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// EncodeJSONQueueList renders a successful queue_list response.
func EncodeJSONQueueList(cfgs []queue.Config) []byte {
	wire := make([]jsonConfig, 0, len(cfgs))
	for _, c := range cfgs {
		wire = append(wire, fromQueueConfig(c))
	}
	body, _ := json.Marshal(jsonEnvelope{Success: true, Queue: wire})
	return body
}

// EncodeJSONOK renders a bare successful response, optionally carrying a
// pending count (services_add).
func EncodeJSONOK(pending int) []byte {
	body, _ := json.Marshal(jsonEnvelope{Success: true, Pending: pending})
	return body
}

// EncodeJSONError renders a failed response with a compacted textual
// reason.
func EncodeJSONError(reason string) []byte {
	body, _ := json.Marshal(jsonEnvelope{Success: false, Error: reason})
	return body
}
