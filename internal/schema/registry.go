package schema

import (
	"fmt"

	"github.com/joseph-ayodele/doc-extractor/constants"
	"github.com/joseph-ayodele/doc-extractor/internal/common"
)

// FieldType is the semantic type of one schema field.
type FieldType string

const (
	TypeString     FieldType = "string"
	TypeDate       FieldType = "date"    // canonical YYYY-MM-DD
	TypeDecimal    FieldType = "decimal" // canonical "12.34" string
	TypeStringList FieldType = "string_list"
	TypeObjectList FieldType = "object_list"
)

// Field describes one extraction target: name, semantic type and whether the
// validator treats absence as an error. Item holds the element fields when
// Type is TypeObjectList.
type Field struct {
	Name        string
	Type        FieldType
	Required    bool
	Description string
	Item        []Field
}

// Definition is the full field contract for one document type. Static,
// registered at process start, never mutated afterwards.
type Definition struct {
	DocType constants.DocumentType
	Fields  []Field
}

// registry is populated once at init and treated as read-only thereafter, so
// it is safe to share across concurrent document runs without locking.
var registry = map[constants.DocumentType]Definition{
	constants.DrivingLicense: {
		DocType: constants.DrivingLicense,
		Fields: []Field{
			{Name: "name", Type: TypeString, Required: true, Description: "Full name of the license holder"},
			{Name: "date_of_birth", Type: TypeDate, Required: true, Description: "Date of birth in YYYY-MM-DD format"},
			{Name: "license_number", Type: TypeString, Required: true, Description: "License number/ID"},
			{Name: "issuing_state", Type: TypeString, Required: true, Description: "State that issued the license"},
			{Name: "expiry_date", Type: TypeDate, Required: true, Description: "Expiry date in YYYY-MM-DD format"},
		},
	},
	constants.ShopReceipt: {
		DocType: constants.ShopReceipt,
		Fields: []Field{
			{Name: "merchant_name", Type: TypeString, Required: true, Description: "Name of the merchant/store"},
			{Name: "total_amount", Type: TypeDecimal, Required: true, Description: "Total amount of the purchase"},
			{Name: "date_of_purchase", Type: TypeDate, Required: true, Description: "Date of purchase in YYYY-MM-DD format"},
			{Name: "items", Type: TypeObjectList, Description: "List of items purchased", Item: []Field{
				{Name: "name", Type: TypeString, Required: true, Description: "Name of the item"},
				{Name: "quantity", Type: TypeDecimal, Required: true, Description: "Quantity purchased, decimal for items sold by weight"},
				{Name: "price", Type: TypeDecimal, Required: true, Description: "Price per item"},
			}},
			{Name: "payment_method", Type: TypeString, Description: "Payment method used"},
		},
	},
	constants.Resume: {
		DocType: constants.Resume,
		Fields: []Field{
			{Name: "full_name", Type: TypeString, Required: true, Description: "Full name of the person"},
			{Name: "email", Type: TypeString, Required: true, Description: "Email address"},
			{Name: "phone_number", Type: TypeString, Required: true, Description: "Phone number"},
			{Name: "skills", Type: TypeStringList, Description: "List of skills"},
			{Name: "work_experience", Type: TypeObjectList, Description: "List of work experiences", Item: []Field{
				{Name: "company", Type: TypeString, Required: true, Description: "Company name"},
				{Name: "role", Type: TypeString, Required: true, Description: "Job title/role"},
				{Name: "dates", Type: TypeString, Required: true, Description: "Employment period, e.g. 'Jan 2020 - Dec 2023'"},
			}},
			{Name: "education", Type: TypeObjectList, Description: "Educational background", Item: []Field{
				{Name: "institution", Type: TypeString, Required: true, Description: "Educational institution name"},
				{Name: "degree", Type: TypeString, Required: true, Description: "Degree obtained"},
				{Name: "graduation_year", Type: TypeString, Description: "Year of graduation or date range"},
			}},
		},
	},
}

// Get returns the registered definition for a document type.
func Get(docType constants.DocumentType) (Definition, error) {
	def, ok := registry[docType]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", common.ErrUnknownDocumentType, docType)
	}
	return def, nil
}

// Lookup returns the field spec for a top-level field name.
func (d Definition) Lookup(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// RequiredFields lists the names of all required top-level fields.
func (d Definition) RequiredFields() []string {
	var out []string
	for _, f := range d.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// JSONSchema renders the definition as a JSON-Schema (draft 2020-12 subset)
// generic map. It constrains the SHAPE only: property types are enforced but
// nothing is marked required, so a structurally sound response with missing
// fields reaches the validator (which reports per-field errors) instead of
// being classified as malformed model output.
func (d Definition) JSONSchema() map[string]any {
	props := map[string]any{}
	for _, f := range d.Fields {
		props[f.Name] = fieldProp(f)
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties":           props,
	}
}

func fieldProp(f Field) map[string]any {
	switch f.Type {
	case TypeDate:
		return map[string]any{"type": "string", "description": f.Description}
	case TypeDecimal:
		// accept number or numeric string; the validator canonicalizes
		return map[string]any{"type": []string{"string", "number"}, "description": f.Description}
	case TypeStringList:
		return map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": f.Description,
		}
	case TypeObjectList:
		itemProps := map[string]any{}
		for _, sub := range f.Item {
			itemProps[sub.Name] = fieldProp(sub)
		}
		return map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": true,
				"properties":           itemProps,
			},
			"description": f.Description,
		}
	default:
		return map[string]any{"type": "string", "description": f.Description}
	}
}
