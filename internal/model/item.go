package model

// Record is one todo entry as the backend returns it.
// ID is assigned by the backend and never changed on the client.
type Record struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"isCompleted"`
}

// Stats counts completed and pending records.
func Stats(records []Record) (done, pending int) {
	for _, r := range records {
		if r.IsCompleted {
			done++
		} else {
			pending++
		}
	}
	return
}
