package engine

import (
	"fmt"
	"strings"
)

// DefaultProviderPrefix is the data source every machine class is looked up through.
const DefaultProviderPrefix = "data.esscsvhost"

// TemplateError reports a template name the classifier cannot split into
// an OS and a size.
type TemplateError struct {
	Key      string
	Template string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %q of resource %s must have at least an OS and a size separated by '-'", e.Template, e.Key)
}

// Class is the machine class of a resource.
type Class struct {
	// MachineType matches the inventory's template column, e.g. "winM".
	MachineType string
	// DataProvider is the data resource the machine reads its hosts from.
	DataProvider string
}

// Classify derives the machine class from the template name, the last
// segment of the logical key. "svc.win-standard-m" yields "winM".
//
// Segment 0 of the dash-split name is the OS, segment 1 the size (upper-cased),
// anything after (domain membership and such) is kept verbatim.
func Classify(logicalKey string) (Class, error) {
	return ClassifyWith(logicalKey, DefaultProviderPrefix)
}

// ClassifyWith is Classify with a custom data provider prefix.
func ClassifyWith(logicalKey, prefix string) (Class, error) {
	template := logicalKey[strings.LastIndexByte(logicalKey, '.')+1:]

	parts := strings.Split(strings.ReplaceAll(template, "-standard", ""), "-")
	if len(parts) < 2 {
		return Class{}, &TemplateError{Key: logicalKey, Template: template}
	}
	parts[1] = strings.ToUpper(parts[1])

	machineType := strings.Join(parts, "")
	return Class{
		MachineType:  machineType,
		DataProvider: prefix + "." + machineType,
	}, nil
}
