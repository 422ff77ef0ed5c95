// Package web is the HTTP surface of the test-taker portal: the login,
// dashboard and results pages, result document downloads, the session sync
// WebSocket and the operational endpoints.
//
// Every browser is identified by the signed client cookie; all of its tabs
// share one session. Pages carry a small script that reports user activity
// over /session/sync and navigates back to the login page as soon as the
// session ends in any tab.
package web
