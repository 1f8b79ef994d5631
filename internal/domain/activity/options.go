package activity

// ListOptions provides filtering options for listing activity.
type ListOptions struct {
	Resource string
	Outcome  *Outcome
	Limit    int
}
