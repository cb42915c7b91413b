package domain

import (
	"fmt"
	"strings"
	"time"
)

// Draft is an in-progress activity under construction by one session.
// Fields stay empty until the wizard has validated them. Status carries
// the outcome of the latest wizard step and is not part of the committed
// activity.
type Draft struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category,omitempty"`
	Minutes     int      `json:"minutes,omitempty"`
	Status      string   `json:"status,omitempty"`
}

// Empty reports whether no field has been set yet.
func (d Draft) Empty() bool {
	return d.Name == "" && d.Description == "" && d.Category == "" && d.Minutes == 0
}

// Summary renders the draft header shown above the wizard controls.
func (d Draft) Summary(now time.Time) string {
	var lines []string
	if d.Status != "" {
		lines = append(lines, d.Status+"\n")
	}

	var fields []string
	if !d.Empty() {
		fields = append(fields, "UUSI AKTIVITEETTI")
	}
	if d.Name != "" {
		fields = append(fields, "Nimi: "+d.Name)
	}
	if d.Description != "" {
		fields = append(fields, "Kuvaus: "+d.Description)
	}
	if d.Category != "" {
		fields = append(fields, "Kategoria: "+string(d.Category))
	}
	if d.Minutes != 0 {
		ends := now.Add(time.Duration(d.Minutes) * time.Minute)
		hours := ""
		if d.Minutes >= 60 {
			hours = fmt.Sprintf("%dh ", d.Minutes/60)
		}
		fields = append(fields, fmt.Sprintf("Pituus: %s%dmin, - poistuu %s", hours, d.Minutes%60, ends.Format("15:04")))
	}

	if len(fields) == 0 {
		fields = []string{"Tervetuloa uuden aktiviteetin muodostamiseen!"}
	}
	return strings.Join(append(lines, fields...), "\n")
}
