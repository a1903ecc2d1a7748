package delta

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/mschmiderer/mogenerator/schema"
)

// Policy selects what happens to the rest of a batch after an operation is
// rejected. A rejected operation never mutates the model, whatever the policy.
type Policy uint8

const (
	// AbortOnError stops the batch at the first rejected operation.
	// Operations applied before it stay applied; the ones after it are
	// not run.
	AbortOnError Policy = iota
	// SkipOnError rejects the failing operation and carries on with the next.
	SkipOnError
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case AbortOnError:
		return "abort"
	case SkipOnError:
		return "skip"
	default:
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
}

// ParsePolicy parses "abort" or "skip".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "abort", "abort-on-error", "":
		return AbortOnError, nil
	case "skip", "skip-on-error":
		return SkipOnError, nil
	default:
		return AbortOnError, fmt.Errorf("mogenerator: unknown delta policy %q", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	v, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Option configures an Applier.
type Option func(*Applier)

// WithPolicy sets the batch policy. The default is AbortOnError.
func WithPolicy(p Policy) Option {
	return func(a *Applier) {
		a.policy = p
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Applier) {
		if l != nil {
			a.log = l
		}
	}
}

// Applier applies delta batches to a model. An Applier holds no state
// between calls; the model passed to Apply must not be used concurrently.
type Applier struct {
	policy Policy
	log    *slog.Logger
}

// NewApplier returns an Applier configured by opts.
func NewApplier(opts ...Option) *Applier {
	a := &Applier{policy: AbortOnError, log: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Policy returns the configured batch policy.
func (a *Applier) Policy() Policy { return a.policy }

// Apply runs the operations of b against m in order.
//
// Every operation is staged in full and validated before anything is written
// to m, so a rejected operation leaves m untouched. The policy decides
// whether the operations after a rejected one still run.
func (a *Applier) Apply(m *schema.Model, b Batch) *Result {
	res := &Result{ID: uuid.New()}
	log := a.log.With("batch", res.ID.String(), "policy", a.policy.String())
	for i, op := range b {
		if len(res.Errors) > 0 && a.policy == AbortOnError {
			res.NotRun = len(b) - i
			log.Debug("delta batch aborted", "not_run", res.NotRun)
			break
		}
		log.Debug("apply delta operation", "index", i, "kind", op.Kind(), "entity", op.Entity())
		diags, err := apply(m, i, op)
		if err != nil {
			res.Rejected++
			res.Errors = append(res.Errors, &OpError{Index: i, Kind: op.Kind(), Entity: op.Entity(), Err: err})
			log.Warn("delta operation rejected", "index", i, "kind", op.Kind(), "entity", op.Entity(), "error", err)
			continue
		}
		res.Applied++
		res.Diagnostics = append(res.Diagnostics, diags...)
		for _, d := range diags {
			log.Info("delta diagnostic", "index", i, "entity", d.Entity, "property", d.Property, "code", d.Code)
		}
	}
	res.OK = len(res.Errors) == 0
	return res
}

func apply(m *schema.Model, i int, op Operation) ([]Diagnostic, error) {
	switch op := op.(type) {
	case *AddEntity:
		if m.Has(op.Name) {
			return nil, schema.NewCollisionError(op.Name, "", schema.KindEntity)
		}
		e := schema.NewEntity(op.Name)
		e.ClassName = op.ClassName
		tx := &txn{model: m, owner: e, created: true, index: i}
		tx.stage(op.Attributes, op.Relationships)
		tx.subentities(op.Subentities)
		return tx.commit()
	case *ExtendEntity:
		e, ok := m.Entity(op.Name)
		if !ok {
			return nil, schema.NewReferenceError("", "", schema.RefEntity, op.Name)
		}
		tx := &txn{model: m, owner: e, index: i}
		tx.stage(op.Attributes, op.Relationships)
		return tx.commit()
	case *Malformed:
		return nil, op.Err
	default:
		return nil, fmt.Errorf("mogenerator: unsupported delta operation %T", op)
	}
}

// txn stages the effects of one operation. Nothing reaches the model before
// commit, and commit runs only if staging recorded no error.
type txn struct {
	model   *schema.Model
	owner   *schema.Entity
	created bool // owner is not registered in the model yet
	index   int
	attrs   []*schema.Attribute
	rels    []*schema.Relationship
	subs    []string
	claims  map[string]string // "Destination.inverse" => claiming relationship
	errs    []error
	diags   []Diagnostic
}

func (tx *txn) stage(attrs []AttributeSpec, rels []RelationshipSpec) {
	for _, s := range attrs {
		if tx.taken(s.Name) {
			tx.errs = append(tx.errs, schema.NewCollisionError(tx.owner.Name, s.Name, schema.KindAttribute))
			continue
		}
		tx.attrs = append(tx.attrs, &schema.Attribute{
			Name:     s.Name,
			Type:     s.Type,
			Optional: s.Optional,
			Indexed:  s.Indexed,
		})
	}
	for _, s := range rels {
		if tx.taken(s.Name) {
			tx.errs = append(tx.errs, schema.NewCollisionError(tx.owner.Name, s.Name, schema.KindRelationship))
			continue
		}
		rule, defaulted := s.Rule()
		r := &schema.Relationship{
			Name:        s.Name,
			Destination: s.Destination,
			Inverse:     s.Inverse,
			DeleteRule:  rule,
			Optional:    s.Optional,
			Transient:   s.Transient,
		}
		if s.MinCount != nil {
			r.MinCount = schema.Count(*s.MinCount)
		}
		if s.MaxCount != nil {
			r.MaxCount = schema.Count(*s.MaxCount)
		}
		tx.rels = append(tx.rels, r)
		if defaulted {
			tx.warn(r.Name, CodeDefaultDeleteRule, fmt.Sprintf("no delete rule given, using %s", rule))
		}
		if r.Inverse == "" {
			tx.warn(r.Name, CodeMissingInverse, fmt.Sprintf("relationship to %s has no inverse", r.Destination))
		}
	}
	// Resolve once everything is staged so relationships of the same
	// operation may name each other as inverses.
	for _, r := range tx.rels {
		tx.resolve(r)
	}
}

func (tx *txn) resolve(r *schema.Relationship) {
	if !tx.exists(r.Destination) {
		tx.errs = append(tx.errs, schema.NewReferenceError(tx.owner.Name, r.Name, schema.RefDestination, r.Destination))
		return
	}
	if r.Inverse == "" {
		return
	}
	inv, ok := tx.relationship(r.Destination, r.Inverse)
	switch {
	case !ok:
		tx.errs = append(tx.errs, schema.NewReferenceError(tx.owner.Name, r.Name, schema.RefInverse, r.Inverse))
	case inv.Destination != tx.owner.Name:
		err := schema.NewReferenceError(tx.owner.Name, r.Name, schema.RefInverse, r.Inverse)
		err.Message = "inverse points to " + inv.Destination
		tx.errs = append(tx.errs, err)
	case inv.Inverse != "" && inv.Inverse != r.Name:
		err := schema.NewReferenceError(tx.owner.Name, r.Name, schema.RefInverse, r.Inverse)
		err.Message = "inverse already paired with " + inv.Inverse
		tx.errs = append(tx.errs, err)
	default:
		// Two staged relationships may not claim the same unpaired inverse.
		key := r.Destination + "." + r.Inverse
		if other, ok := tx.claims[key]; ok {
			err := schema.NewReferenceError(tx.owner.Name, r.Name, schema.RefInverse, r.Inverse)
			err.Message = "inverse already claimed by " + other
			tx.errs = append(tx.errs, err)
			return
		}
		if tx.claims == nil {
			tx.claims = make(map[string]string)
		}
		tx.claims[key] = r.Name
	}
}

func (tx *txn) subentities(names []string) {
	for _, name := range names {
		switch super, hasSuper := tx.model.Superentity(name); {
		case name == tx.owner.Name:
			err := schema.NewReferenceError(tx.owner.Name, "", schema.RefSubentity, name)
			err.Message = "an entity cannot be its own subentity"
			tx.errs = append(tx.errs, err)
		case !tx.model.Has(name):
			tx.errs = append(tx.errs, schema.NewReferenceError(tx.owner.Name, "", schema.RefSubentity, name))
		case hasSuper:
			err := schema.NewCollisionError(name, "", schema.KindSubentity)
			err.Message = "already a subentity of " + super.Name
			tx.errs = append(tx.errs, err)
		case slices.Contains(tx.subs, name):
			err := schema.NewCollisionError(name, "", schema.KindSubentity)
			err.Message = "listed twice"
			tx.errs = append(tx.errs, err)
		default:
			tx.subs = append(tx.subs, name)
		}
	}
}

func (tx *txn) commit() ([]Diagnostic, error) {
	if len(tx.errs) > 0 {
		return nil, errors.Join(tx.errs...)
	}
	tx.owner.Attributes = append(tx.owner.Attributes, tx.attrs...)
	tx.owner.Relationships = append(tx.owner.Relationships, tx.rels...)
	tx.owner.Subentities = append(tx.owner.Subentities, tx.subs...)
	if tx.created {
		if err := tx.model.Add(tx.owner); err != nil {
			return nil, err
		}
	}
	// Link inverses back when the other side has none yet.
	for _, r := range tx.rels {
		if r.Inverse == "" {
			continue
		}
		if inv, ok := tx.relationship(r.Destination, r.Inverse); ok && inv.Inverse == "" {
			inv.Inverse = r.Name
		}
	}
	return tx.diags, nil
}

// taken reports if name is used by the owner or by a staged property.
func (tx *txn) taken(name string) bool {
	if tx.owner.HasProperty(name) {
		return true
	}
	for _, a := range tx.attrs {
		if a.Name == name {
			return true
		}
	}
	for _, r := range tx.rels {
		if r.Name == name {
			return true
		}
	}
	return false
}

func (tx *txn) exists(entity string) bool {
	return entity == tx.owner.Name || tx.model.Has(entity)
}

// relationship looks up a relationship on entity, including the ones staged
// on the owner.
func (tx *txn) relationship(entity, name string) (*schema.Relationship, bool) {
	if entity == tx.owner.Name {
		if r, ok := tx.owner.Relationship(name); ok {
			return r, true
		}
		for _, r := range tx.rels {
			if r.Name == name {
				return r, true
			}
		}
		return nil, false
	}
	e, ok := tx.model.Entity(entity)
	if !ok {
		return nil, false
	}
	return e.Relationship(name)
}

func (tx *txn) warn(property, code, msg string) {
	tx.diags = append(tx.diags, Diagnostic{
		Op:       tx.index,
		Entity:   tx.owner.Name,
		Property: property,
		Code:     code,
		Message:  msg,
	})
}
