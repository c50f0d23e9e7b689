package domain

import "time"

// TicketConfig is the seating layout pushed by the event catalogue.
type TicketConfig struct {
	EventID       int64          `json:"event_id" validate:"required,gt=0"`
	EventCode     string         `json:"event_code"`
	TicketDetails []TicketDetail `json:"ticket_details" validate:"dive"`
}

type TicketDetail struct {
	TicketTypeCode string `json:"ticket_type_code" validate:"required"`
	ZoneName       string `json:"zone_name"`
	Code           string `json:"code"`
}

type ConfigSnapshot struct {
	ID        int64        `json:"id" db:"id"`
	EventID   int64        `json:"event_id" db:"event_id"`
	EventCode string       `json:"event_code" db:"event_code"`
	Payload   TicketConfig `json:"payload" db:"payload"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// ZonesByType lists zone labels per ticket type code in snapshot order.
// A detail without a zone name contributes its own code.
func (c *TicketConfig) ZonesByType() map[string][]string {
	zones := make(map[string][]string)
	if c == nil {
		return zones
	}

	for _, d := range c.TicketDetails {
		if d.TicketTypeCode == "" {
			continue
		}

		label := d.ZoneName
		if label == "" {
			label = d.Code
		}
		if label == "" {
			continue
		}
		zones[d.TicketTypeCode] = append(zones[d.TicketTypeCode], label)
	}

	return zones
}

// LabelRotator hands out zone labels per ticket type round-robin, wrapping around.
// Types without zones get their own code as label.
type LabelRotator struct {
	zones map[string][]string
	next  map[string]int
}

func NewLabelRotator(cfg *TicketConfig) *LabelRotator {
	return &LabelRotator{
		zones: cfg.ZonesByType(),
		next:  make(map[string]int),
	}
}

func (r *LabelRotator) Next(ticketTypeCode string) *string {
	if ticketTypeCode == "" {
		return nil
	}

	labels := r.zones[ticketTypeCode]
	if len(labels) == 0 {
		label := ticketTypeCode
		return &label
	}

	i := r.next[ticketTypeCode]
	r.next[ticketTypeCode] = i + 1

	label := labels[i%len(labels)]
	return &label
}
