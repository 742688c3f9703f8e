// Package entities holds the domain records served by the pharmacie API.
package entities

import "encoding/json"

// Medicament is a medication record: identifier, display name,
// pharmaceutical form, quantity on hand and a photo reference.
//
// Fields are fixed at construction and only readable through accessors.
// Values are stored verbatim; checks live in the validation package.
type Medicament struct {
	id                  string
	denomination        string
	formePharmaceutique string
	quantite            int
	photo               string
}

// NewMedicament builds a Medicament from its five values, in order.
func NewMedicament(id, denomination, formePharmaceutique string, qte int, photo string) Medicament {
	return Medicament{
		id:                  id,
		denomination:        denomination,
		formePharmaceutique: formePharmaceutique,
		quantite:            qte,
		photo:               photo,
	}
}

func (m Medicament) ID() string { return m.id }

func (m Medicament) Denomination() string { return m.denomination }

// FormePharmaceutique is the physical presentation (comprimé, sirop...).
func (m Medicament) FormePharmaceutique() string { return m.formePharmaceutique }

func (m Medicament) Quantite() int { return m.quantite }

// Photo is a path or URL to the image of the medication.
func (m Medicament) Photo() string { return m.photo }

// String renders the denomination only, as "--> {denomination} ".
func (m Medicament) String() string {
	return "--> " + m.denomination + " "
}

// medicamentJSON is the wire shape of a Medicament
type medicamentJSON struct {
	ID                  string `json:"id"`
	Denomination        string `json:"denomination"`
	FormePharmaceutique string `json:"formePharmaceutique"`
	Quantite            int    `json:"quantite"`
	Photo               string `json:"photo"`
}

func (m Medicament) MarshalJSON() ([]byte, error) {
	return json.Marshal(medicamentJSON{
		ID:                  m.id,
		Denomination:        m.denomination,
		FormePharmaceutique: m.formePharmaceutique,
		Quantite:            m.quantite,
		Photo:               m.photo,
	})
}

// UnmarshalJSON decodes into a fresh value. Missing or null keys give
// zero values; nothing is rejected.
func (m *Medicament) UnmarshalJSON(data []byte) error {
	var raw medicamentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = NewMedicament(raw.ID, raw.Denomination, raw.FormePharmaceutique, raw.Quantite, raw.Photo)
	return nil
}
