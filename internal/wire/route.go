// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package wire

// This file builds the Command Surface's (C6) URL router: the
// `<prefix>batch/<queue>/<method>.<format>[/<verb>]` suffix grammar over
// gorilla/mux path-variable routing, with the {queue}/{method} segments
// declared as mux path variables rather than parsed by hand.

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter builds the mux.Router that serves every wire-surface route
// under prefix (e.g. "/v1/"), dispatching each match to surface.
func NewRouter(prefix string, surface *Surface) *mux.Router {
	r := mux.NewRouter()
	base := r.PathPrefix(prefix + "batch/").Subrouter()

	base.HandleFunc("/{queue}/{method}.{format}/{verb}", surface.ServeHTTP)
	base.HandleFunc("/{queue}/{method}.{format}", surface.ServeHTTP)

	return r
}

// routeParams extracts the decoded {queue, method, format, verb} path
// variables for one matched request. verb defaults to "get" when the
// request omits the trailing segment, matching the <verb> production's
// optionality in the route grammar.
func routeParams(r *http.Request) (queueName, method, format, verb string) {
	vars := mux.Vars(r)
	verb = vars["verb"]
	if len(verb) == 0 {
		verb = "get"
	}
	return vars["queue"], vars["method"], vars["format"], verb
}
