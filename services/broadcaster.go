package services

// Broadcaster receives change events after a mutation has committed and
// fans them out to the subscribers of the affected team. Delivery is
// best-effort and must never block or fail the calling mutation.
type Broadcaster interface {
	PublishTaskChanged(teamID uint, payload interface{})
	PublishTeamChanged(teamID uint, payload interface{})
}
