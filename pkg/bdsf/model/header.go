package model

// Card is a single header entry.
type Card struct {
	Name    string
	Value   string
	Comment string
}

// Header is the image metadata block. Cards keep their original order
// so a header survives a read/write cycle intact.
type Header struct {
	Cards []Card
}

func NewHeader() *Header {
	return &Header{Cards: []Card{}}
}

// Set adds or replaces the card with the given name.
func (h *Header) Set(name, value, comment string) {
	for i := range h.Cards {
		if h.Cards[i].Name == name {
			h.Cards[i].Value = value
			h.Cards[i].Comment = comment

			return
		}
	}
	h.Cards = append(h.Cards, Card{Name: name, Value: value, Comment: comment})
}

// Get returns the value of the named card and whether it exists.
func (h *Header) Get(name string) (string, bool) {
	for _, c := range h.Cards {
		if c.Name == name {
			return c.Value, true
		}
	}

	return "", false
}

// GetDefault returns the value of the named card, or def when absent.
func (h *Header) GetDefault(name, def string) string {
	if v, ok := h.Get(name); ok {
		return v
	}

	return def
}
