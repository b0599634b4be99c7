// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package coordinator

// This file carries the coordinator's error taxonomy as sentinel
// kv.Error values, compared by exact message rather than identity: any
// error whose message equals a sentinel's classifies as that sentinel.

import (
	"github.com/jjeffery/kv" // MIT License
)

var (
	// ErrNotFound means the named queue is absent.
	ErrNotFound = kv.NewError("not_found")

	// ErrNotRunning means the queue exists but has no current runtime job.
	ErrNotRunning = kv.NewError("not_running")

	// ErrPurged means the first job of a newly created queue failed to
	// start; the queue was not created.
	ErrPurged = kv.NewError("purged")
)

func isTaxonomy(err kv.Error, sentinel kv.Error) bool {
	if err == nil {
		return false
	}
	return err.Error() == sentinel.Error()
}

// IsNotFound reports whether err is the not_found taxonomy error.
func IsNotFound(err kv.Error) bool { return isTaxonomy(err, ErrNotFound) }

// IsNotRunning reports whether err is the not_running taxonomy error.
func IsNotRunning(err kv.Error) bool { return isTaxonomy(err, ErrNotRunning) }

// IsPurged reports whether err is the purged taxonomy error.
func IsPurged(err kv.Error) bool { return isTaxonomy(err, ErrPurged) }

// isCleanReason classifies a termination reason: clean iff it is
// literally "shutdown" or a two-element tagged tuple whose tag is
// "shutdown"; anything else is an error reason.
func isCleanReason(reason interface{}) bool {
	switch r := reason.(type) {
	case string:
		return r == "shutdown"
	case []interface{}:
		if len(r) != 2 {
			return false
		}
		tag, ok := r[0].(string)
		return ok && tag == "shutdown"
	default:
		return false
	}
}
