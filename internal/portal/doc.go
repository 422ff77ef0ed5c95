// Package portal is the session-facing service of the test-taker portal.
//
// A client logs in with LoginWithCredentials, which stores the matching
// record in the client's session slot and arms an idle monitor. Pages read
// the record with GetCurrentSession and forward user activity with
// Activity. The session ends on Logout or when the monitor expires; both
// clear the slot, and every open tab of the client learns about it through
// Watch.
package portal
