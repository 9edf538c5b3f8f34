package models

// Phase is one timed sub-stage of a shift.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseToRestaurant Phase = "toRestaurant"
	PhaseWaiting      Phase = "waiting"
	PhaseToCustomer   Phase = "toCustomer"
	PhaseReturned     Phase = "returnedToHotspot"
)

// ActiveShift is the durable snapshot of the one in-progress shift. It is
// written in full on every phase transition and deleted when the cycle
// completes or is cancelled, so the idle state is represented by absence.
// Pay and Miles are kept as the raw strings the worker typed, for display
// continuity; StartMs and PhaseStartMs are Unix milliseconds.
type ActiveShift struct {
	StoredOrderID  string  `json:"storedOrderId"`
	Service        string  `json:"service"`
	Restaurant     string  `json:"restaurant"`
	Pay            string  `json:"pay"`
	Miles          string  `json:"miles"`
	Phase          Phase   `json:"phase"`
	StartMs        int64   `json:"startMs"`
	PhaseStartMs   int64   `json:"phaseStartMs"`
	GrossHourlyPay float64 `json:"grossHourlyPay"`
	NetHourlyPay   float64 `json:"netHourlyPay"`
}

// StartShiftRequest is the input to start (or chain) a live-tracked shift.
// Pay and miles arrive as free text from the entry widgets; unparsable
// values fall back to zero rather than blocking the transition.
type StartShiftRequest struct {
	Service    string `json:"service" validate:"required,oneof=GrubHub DoorDash UberEats"`
	Restaurant string `json:"restaurant"`
	Pay        string `json:"pay"`
	Miles      string `json:"miles"`
}

// ManualEntryRequest is a fully specified past trip entered by hand.
type ManualEntryRequest struct {
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time          string  `json:"time" validate:"required,datetime=15:04"`
	Service       string  `json:"service" validate:"required,oneof=GrubHub DoorDash UberEats"`
	Restaurant    string  `json:"restaurant"`
	Pay           float64 `json:"pay" validate:"min=0"`
	Miles         float64 `json:"miles" validate:"min=0"`
	TotalDuration string  `json:"totalDuration" validate:"required"`
}
