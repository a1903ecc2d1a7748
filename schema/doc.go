// Package schema holds the in-memory description of an object model: its
// entities, their attributes and the relationships between them.
//
// # Model
//
// A Model maps entity names to entities and keeps insertion order:
//
//	m := schema.MustNew(
//	    &schema.Entity{
//	        Name: "User",
//	        Attributes: []*schema.Attribute{
//	            {Name: "email", Type: field.TypeString, Indexed: true},
//	        },
//	        Relationships: []*schema.Relationship{
//	            {Name: "posts", Destination: "Post", Inverse: "author", DeleteRule: edge.Cascade},
//	        },
//	    },
//	    &schema.Entity{
//	        Name: "Post",
//	        Relationships: []*schema.Relationship{
//	            {Name: "author", Destination: "User", Inverse: "posts", MaxCount: schema.Count(1)},
//	        },
//	    },
//	)
//
// # References
//
// Relationship destinations, inverses and subentities are names. They are
// resolved against the model on demand, so an entity never owns another one
// and mutually referencing entities do not form ownership cycles. Validate
// reports every reference that does not resolve:
//
//	if err := m.Validate(); err != nil {
//	    // errors.Is(err, schema.ErrUnresolved)
//	}
//
// # Names
//
// Entity names are unique in a model. Attribute and relationship names share
// a single namespace per entity.
package schema
