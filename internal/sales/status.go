package sales

type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// cancelled is terminal so an order carries at most one cancellation record.
// Repeating a live status is allowed and leaves the order as it was.
var validNext = map[Status]map[Status]bool{
	StatusProcessing: {StatusProcessing: true, StatusCompleted: true, StatusCancelled: true},
	StatusCompleted:  {StatusCompleted: true, StatusProcessing: true, StatusCancelled: true},
	StatusCancelled:  {},
}

func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	_, ok := validNext[st]
	return st, ok
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
