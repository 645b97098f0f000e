package onboarding

// Choices lists the values offered by the selectors of the details and
// address steps. Values are suggestions; free text is accepted.
type Choices struct {
	Gender       []string `json:"gender"`
	Nationality  []string `json:"nationality"`
	Country      []string `json:"country"`
	Province     []string `json:"province"`
	Municipality []string `json:"municipality"`
	Barangay     []string `json:"barangay"`
}

// DefaultChoices returns the selector values served to the client.
func DefaultChoices() Choices {
	return Choices{
		Gender:       []string{"Male", "Female", "Other"},
		Nationality:  []string{"Filipino", "Others"},
		Country:      []string{"Philippines", "Others"},
		Province:     []string{"Cebu City", "Others"},
		Municipality: []string{"Cebu City", "Others"},
		Barangay:     []string{"Mambaling", "Duljo", "Pasil", "Others"},
	}
}
