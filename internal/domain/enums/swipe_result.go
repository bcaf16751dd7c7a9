package enums

type SwipeOutcome string

const (
	SwipeOutcomeSkipped SwipeOutcome = "skipped"
	SwipeOutcomeLiked   SwipeOutcome = "liked"
	SwipeOutcomeMatched SwipeOutcome = "matched"
)

// RelayEvent names the frames pushed over the realtime relay.
type RelayEvent string

const (
	RelayEventReceiveMessage RelayEvent = "receiveMessage"
	RelayEventMatchClosed    RelayEvent = "matchClosed"
	RelayEventError          RelayEvent = "error"
)
