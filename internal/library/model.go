package library

import "strconv"

// ListItem is one row of the library dataset.
type ListItem struct {
	Number   int   `json:"Number"`
	GlobalID int64 `json:"global_id"`
	Cells    Cells `json:"Cells"`
}

// Cells are the dataset columns of a row.
type Cells struct {
	FullName      string    `json:"FullName,omitempty"`
	ObjectAddress []Address `json:"ObjectAddress,omitempty"`
}

// Address is one postal address of a library.
type Address struct {
	Address string `json:"Address"`
}

// ID returns the row's global id as a string, the form used in item URLs.
func (li ListItem) ID() string {
	return strconv.FormatInt(li.GlobalID, 10)
}

// Address returns the first address of the library, or "".
func (li ListItem) Address() string {
	if len(li.Cells.ObjectAddress) == 0 {
		return ""
	}
	return li.Cells.ObjectAddress[0].Address
}

// project keeps only the named cells.
func (li ListItem) project(cells []string) ListItem {
	if cells == nil {
		return li
	}
	var out Cells
	for _, c := range cells {
		switch c {
		case "FullName":
			out.FullName = li.Cells.FullName
		case "ObjectAddress":
			out.ObjectAddress = li.Cells.ObjectAddress
		}
	}
	li.Cells = out
	return li
}
