package testutils

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/navgraph/pkg/domain"
)

// Node is a generic entity used across tests: a typed object with an owner and
// optional named references.
type Node struct {
	Type  domain.TypeName
	ID    string
	Owner domain.Entity
	Attrs map[string]domain.Entity
}

// NewNode creates a Node owned by parent (which may be nil).
func NewNode(typ domain.TypeName, id string, parent domain.Entity) *Node {
	return &Node{Type: typ, ID: id, Owner: parent, Attrs: map[string]domain.Entity{}}
}

func (n *Node) EntityType() domain.TypeName { return n.Type }
func (n *Node) EntityID() string            { return n.ID }
func (n *Node) Parent() domain.Entity       { return n.Owner }

func (n *Node) Attribute(name string) (domain.Entity, bool) {
	e, ok := n.Attrs[name]
	return e, ok
}

// With sets a named reference and returns the node.
func (n *Node) With(name string, e domain.Entity) *Node {
	n.Attrs[name] = e
	return n
}

// PageKey names the page shown for destination on e.
func PageKey(e domain.Entity, destination string) string {
	return domain.Describe(e) + "/" + destination
}

// ErrInjected is the default error returned by injected step failures.
var ErrInjected = errors.New("injected step failure")

// Console is an in-memory stand-in for the live UI. It tracks the page currently
// displayed and counts what the engine did to it.
type Console struct {
	mu sync.Mutex

	current  string
	steps    map[string]int
	resets   map[string]int
	failures map[string][]error
	lag      map[string]int
	stuck    map[string]bool

	// Refreshes counts calls to Recover.
	Refreshes int
	// Bases counts calls to EnsureBase.
	Bases int
	// RecoverErr is returned by Recover when set.
	RecoverErr error
}

// NewConsole creates an empty console showing no page.
func NewConsole() *Console {
	return &Console{
		steps:    map[string]int{},
		resets:   map[string]int{},
		failures: map[string][]error{},
		lag:      map[string]int{},
		stuck:    map[string]bool{},
	}
}

// Registrar is the write side of the registry.
type Registrar interface {
	Register(entityType domain.TypeName, name string, def domain.StepDefinition)
}

// Define registers a destination whose step moves the console to its page.
func (c *Console) Define(reg Registrar, typ domain.TypeName, name string, prereq *domain.Prerequisite) {
	reg.Register(typ, name, c.Definition(name, prereq))
}

// Definition builds a console-backed definition for destination name.
func (c *Console) Definition(name string, prereq *domain.Prerequisite) domain.StepDefinition {
	return domain.StepDefinition{
		Prerequisite: prereq,
		Step: func(ctx context.Context, hop *domain.HopContext) error {
			return c.navigate(PageKey(hop.Entity, name))
		},
		IsDisplayed: func(ctx context.Context, hop *domain.HopContext) bool {
			return c.displayed(PageKey(hop.Entity, name))
		},
		Resetter: func(ctx context.Context, hop *domain.HopContext) error {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.resets[PageKey(hop.Entity, name)]++
			return nil
		},
		View: func(ctx context.Context, hop *domain.HopContext) any {
			return PageKey(hop.Entity, name)
		},
	}
}

func (c *Console) navigate(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps[key]++
	if errs := c.failures[key]; len(errs) > 0 {
		c.failures[key] = errs[1:]
		return errs[0]
	}
	if !c.stuck[key] {
		c.current = key
	}
	return nil
}

func (c *Console) displayed(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != key {
		return false
	}
	if c.lag[key] > 0 {
		c.lag[key]--
		return false
	}
	return true
}

// Show puts the console on a page without counting a step.
func (c *Console) Show(e domain.Entity, destination string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = PageKey(e, destination)
}

// Current returns the page currently displayed.
func (c *Console) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Fail makes the next len(errs) steps to the page fail with errs, in order.
// A nil entry fails with ErrInjected.
func (c *Console) Fail(e domain.Entity, destination string, errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := PageKey(e, destination)
	for _, err := range errs {
		if err == nil {
			err = ErrInjected
		}
		c.failures[key] = append(c.failures[key], err)
	}
}

// Lag makes the page report "not displayed" for the next n checks after arrival.
func (c *Console) Lag(e domain.Entity, destination string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lag[PageKey(e, destination)] = n
}

// Stick makes steps to the page succeed without ever displaying it.
func (c *Console) Stick(e domain.Entity, destination string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stuck[PageKey(e, destination)] = true
}

// Steps returns how many times the step of the page ran.
func (c *Console) Steps(e domain.Entity, destination string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.steps[PageKey(e, destination)]
}

// TotalSteps returns how many steps ran overall.
func (c *Console) TotalSteps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.steps {
		total += n
	}
	return total
}

// Resets returns how many times the resetter of the page ran.
func (c *Console) Resets(e domain.Entity, destination string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resets[PageKey(e, destination)]
}

// Recover implements ports.Recoverer by "refreshing" the page: the current page is kept.
func (c *Console) Recover(ctx context.Context, cause error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Refreshes++
	return c.RecoverErr
}

// EnsureBase implements ports.BaseState.
func (c *Console) EnsureBase(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Bases++
	return nil
}

func (c *Console) String() string {
	return fmt.Sprintf("console(current=%q)", c.Current())
}
