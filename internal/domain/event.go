package domain

// Realtime event names pushed to trip room subscribers.
const (
	EventTripUpdated    = "trip:updated"
	EventTripDeleted    = "trip:deleted"
	EventStopAdded      = "stop:added"
	EventStopUpdated    = "stop:updated"
	EventStopRemoved    = "stop:removed"
	EventStopsReordered = "stop:reordered"
	EventRoomMembers    = "room:members"
)
