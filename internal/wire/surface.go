// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

// Package wire implements the Command Surface (C6): parsing of the two
// wire encodings and synchronous dispatch of the decoded command
// against the Coordinator (C5). It is a thin adapter layer, carrying no
// scheduling state of its own.
package wire

import (
	"io"
	"net/http"
	"strconv"

	"github.com/jjeffery/kv" // MIT License

	"github.com/leaf-ai/batch-scheduler/internal/coordinator"
	"github.com/leaf-ai/batch-scheduler/internal/logger"
	"github.com/leaf-ai/batch-scheduler/internal/queue"
)

// Surface is the C6 command surface: it owns no scheduling state, only a
// reference to the coordinator it dispatches decoded commands against.
type Surface struct {
	coord *coordinator.Coordinator
	log   *logger.Logger
}

// NewSurface builds a Surface over coord.
func NewSurface(coord *coordinator.Coordinator, log *logger.Logger) *Surface {
	return &Surface{coord: coord, log: log}
}

// ServeHTTP implements the route grammar: decode {queue, method, format,
// verb} from the URL, dispatch method synchronously against the
// coordinator, and encode the result in the requested format.
func (s *Surface) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	queueName, method, format, verb := routeParams(r)

	body, errGo := io.ReadAll(r.Body)
	if errGo != nil {
		s.writeError(w, format, "failed to read request body")
		return
	}

	switch method {
	case "queue":
		s.handleQueueList(w, format, queueName)
	case "queue_clear":
		s.handleSimple(w, format, verb, queueName, s.coord.QueueClear)
	case "queue_suspend":
		s.handleSimple(w, format, verb, queueName, s.coord.QueueSuspend)
	case "queue_resume":
		s.handleSimple(w, format, verb, queueName, s.coord.QueueResume)
	case "services_add":
		s.handleServicesAdd(w, format, queueName, body)
	case "services_remove":
		s.handleSimple(w, format, verb, queueName, s.coord.ServicesRemove)
	case "services_restart":
		s.handleSimple(w, format, verb, queueName, s.coord.ServicesRestart)
	default:
		s.writeError(w, format, "unknown method "+method)
	}
}

func (s *Surface) handleQueueList(w http.ResponseWriter, format, queueName string) {
	cfgs, err := s.coord.QueueList(queueName)
	if err != nil {
		s.writeError(w, format, err.Error())
		return
	}
	switch format {
	case "erl":
		w.Write([]byte(EncodeSuccess(EncodeConfigs(cfgs)))) //nolint:errcheck // best-effort response write
	default:
		w.Write(EncodeJSONQueueList(cfgs)) //nolint:errcheck
	}
}

func (s *Surface) handleSimple(w http.ResponseWriter, format, verb, queueName string, fn func(string) kv.Error) {
	_ = verb // idempotence is asserted by the caller's HTTP verb choice, not re-checked here
	if err := fn(queueName); err != nil {
		s.writeError(w, format, err.Error())
		return
	}
	s.writeOK(w, format, 0)
}

func (s *Surface) handleServicesAdd(w http.ResponseWriter, format, queueName string, body []byte) {
	var cfgs []queue.Config
	var err error

	switch format {
	case "erl":
		decoded, kvErr := DecodeConfigs(string(body))
		if kvErr != nil {
			err = kvErr
		}
		cfgs = decoded
	default:
		decoded, kvErr := DecodeJSONConfigs(body)
		if kvErr != nil {
			err = kvErr
		}
		cfgs = decoded
	}
	if err != nil {
		s.writeError(w, format, err.Error())
		return
	}

	pending, kvErr := s.coord.ServicesAdd(queueName, cfgs)
	if kvErr != nil {
		s.writeError(w, format, kvErr.Error())
		return
	}
	if format == "erl" {
		w.Write([]byte(EncodeSuccess(strconv.Itoa(pending)))) //nolint:errcheck
		return
	}
	s.writeOK(w, format, pending)
}

func (s *Surface) writeOK(w http.ResponseWriter, format string, pending int) {
	switch format {
	case "erl":
		w.Write([]byte(EncodeSuccess())) //nolint:errcheck
	default:
		w.Write(EncodeJSONOK(pending)) //nolint:errcheck
	}
}

func (s *Surface) writeError(w http.ResponseWriter, format, reason string) {
	w.WriteHeader(http.StatusBadRequest)
	switch format {
	case "erl":
		w.Write([]byte(EncodeError(reason))) //nolint:errcheck
	default:
		w.Write(EncodeJSONError(reason)) //nolint:errcheck
	}
}
