package models

// Domain is a selectable recruitment track (e.g. web, design, machine learning)
type Domain struct {
	ID          string `json:"_id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Color       string `json:"color" yaml:"color"`
}

// DomainIDs returns the ids of domains in order
func DomainIDs(domains []Domain) []string {
	ids := make([]string, len(domains))
	for i, d := range domains {
		ids[i] = d.ID
	}
	return ids
}
