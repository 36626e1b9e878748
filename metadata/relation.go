package metadata

// Relation describes one relation between two collections. Collection is the
// side holding the foreign key (the "many" side); RelatedCollection is the
// side the key points at. For one-to-many relations OneField names the
// collection-valued field on the related side.
type Relation struct {
	Collection        string `json:"collection"`
	Field             string `json:"field"`
	RelatedCollection string `json:"related_collection"`
	OneField          string `json:"one_field,omitempty"`
}

// FieldRelation is the classification of one record field against a relation
// set: the matched descriptor, the cardinality seen from the edited
// collection, and the collection the field's values live in.
type FieldRelation struct {
	Relation          *Relation
	ManyToOne         bool
	RelatedCollection string
	FieldName         string
}

// Classify searches relations for a descriptor whose one-field or many-field
// name equals fieldKey and classifies it relative to editedCollection.
//
// When the descriptor's owning collection is the edited collection, the
// record holds the foreign key itself: many-to-one, resolved against the
// descriptor's related collection. Otherwise the field is the collection
// valued side of a one-to-many, resolved against the owning collection.
// Returns nil when no descriptor references fieldKey; such fields pass
// through unresolved.
func Classify(relations []*Relation, fieldKey, editedCollection string) *FieldRelation {
	for _, rel := range relations {
		if rel.Field != fieldKey && rel.OneField != fieldKey {
			continue
		}
		if rel.Collection == editedCollection {
			return &FieldRelation{
				Relation:          rel,
				ManyToOne:         true,
				RelatedCollection: rel.RelatedCollection,
				FieldName:         rel.Field,
			}
		}
		return &FieldRelation{
			Relation:          rel,
			ManyToOne:         false,
			RelatedCollection: rel.Collection,
			FieldName:         rel.OneField,
		}
	}
	return nil
}
