// Package idle implements the sliding inactivity timeout that ends a session
// after a period without user activity.
//
// A Monitor moves through four states:
//
//	Inactive --Arm--> Armed --Signal--> Renewed --Signal--> Renewed
//	   ^                |                  |
//	   |                +-----deadline-----+--> Expired --onExpire--> Inactive
//	   +------------------Disarm-------------------+
//
// Every Signal cancels the pending deadline and schedules a new one a full
// timeout later. Disarm cancels the pending deadline; a deadline that was
// cancelled or superseded never calls onExpire.
//
// Registry keeps one monitor per client and is what the portal uses:
//
//	reg := idle.NewRegistry(15*time.Minute, idle.NewClockScheduler(nil))
//	reg.Arm(clientID, func() { terminate(clientID) })
//	reg.Signal(clientID, idle.SignalKeyDown)
//	reg.Disarm(clientID)
package idle
