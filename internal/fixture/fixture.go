// Package fixture reads annotated diagnostic fixtures and checks the
// inference engines against them.
//
// A fixture is a YAML document holding a source text annotated with
// expected diagnostics, the declarations the source refers to, and the
// call sites to check, described as expression trees. Each expression
// names the text it covers so that its Range can be found in the source.
package fixture

import (
	"bytes"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/cottand/callinfer/frontend/feature"
	"github.com/cottand/callinfer/frontend/ir"
	"github.com/cottand/callinfer/frontend/symbols"
	"github.com/cottand/callinfer/frontend/types"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// checkSubtype is declared in fixtures with the CHECK_TYPE directive
const checkSubtype = "fun <T> checkSubtype(t: T): T"

// File is the YAML layout of a fixture
type File struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
	// Language is a language version like "1.3" enabling the features
	// available by default in it
	Language     string     `yaml:"language"`
	Declarations []string   `yaml:"declarations"`
	Sites        []SiteNode `yaml:"sites"`
}

type SiteNode struct {
	// Expected is the type the context expects, empty when there is none
	Expected string   `yaml:"expected"`
	Expr     ExprNode `yaml:",inline"`
}

// ExprNode describes one expression. Exactly one of Const, Ref, Call, Fun,
// Array and Block is set.
//
// At is the text the expression covers; the Nth occurrence (from 0) of At
// inside the range of the enclosing expression is used.
type ExprNode struct {
	At  string `yaml:"at"`
	Nth int    `yaml:"nth"`

	// Const is the type of an expression whose type is already known
	Const string     `yaml:"const"`
	Ref   string     `yaml:"ref"`
	Call  *CallNode  `yaml:"call"`
	Fun   *FunNode   `yaml:"fun"`
	Array *ArrayNode `yaml:"array"`
	Block *BlockNode `yaml:"block"`
}

type CallNode struct {
	Callee     string    `yaml:"callee"`
	Annotation bool      `yaml:"annotation"`
	Receiver   string    `yaml:"receiver"`
	ReceiverAt string    `yaml:"receiverAt"`
	TypeArgs   []string  `yaml:"typeArgs"`
	Args       []ArgNode `yaml:"args"`
}

type ArgNode struct {
	Name   string   `yaml:"name"`
	Spread bool     `yaml:"spread"`
	Value  ExprNode `yaml:",inline"`
}

type FunNode struct {
	Params  []ParamNode `yaml:"params"`
	Returns string      `yaml:"returns"`
	Body    ExprNode    `yaml:"body"`
}

// ParamNode is a literal parameter. At defaults to "name: Type", or to
// the name alone when Type is empty.
type ParamNode struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	At   string `yaml:"at"`
}

type ArrayNode struct {
	Elements []ExprNode `yaml:"elements"`
}

type BlockNode struct {
	Stmts  []ExprNode `yaml:"stmts"`
	Result *ExprNode  `yaml:"result"`
}

// Fixture is a parsed fixture, ready to be checked
type Fixture struct {
	Name string
	// Text is the source without its markers. Ranges are offsets into Text.
	Text       string
	Directives Directives
	Features   feature.Set
	Table      *symbols.Table
	Sites      []ir.Site
	Markers    []Marker
}

// Load reads the fixture at path
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading fixture")
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	f, err := Parse(name, data)
	if err != nil {
		return nil, errors.Wrapf(err, "fixture %s", path)
	}
	return f, nil
}

// Parse parses the YAML fixture in data. name is used when the document
// does not name itself.
func Parse(name string, data []byte) (*Fixture, error) {
	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, errors.Wrap(err, "decoding YAML")
	}
	if file.Name == "" {
		file.Name = name
	}
	return file.Fixture()
}

// Fixture turns the YAML layout into a Fixture
func (file File) Fixture() (*Fixture, error) {
	text, markers, err := StripMarkers(file.Source)
	if err != nil {
		return nil, errors.Wrap(err, "reading markers")
	}
	f := &Fixture{
		Name:       file.Name,
		Text:       text,
		Directives: ParseDirectives(text),
		Markers:    markers,
		Features:   feature.None(),
	}

	if file.Language != "" {
		if f.Features, err = feature.ForVersion(file.Language); err != nil {
			return nil, err
		}
	}
	if f.Features, err = f.Features.Apply(f.Directives.Language); err != nil {
		return nil, errors.Wrap(err, "LANGUAGE directive")
	}

	declarations := file.Declarations
	if f.Directives.CheckType {
		declarations = append([]string{checkSubtype}, declarations...)
	}
	if f.Table, err = symbols.Prelude().Declare(declarations...); err != nil {
		return nil, err
	}

	b := &builder{text: text}
	whole := ir.RangeAt(0, len(text))
	for i, node := range file.Sites {
		site := ir.Site{}
		if node.Expected != "" {
			if site.Expected, err = symbols.ParseType(node.Expected); err != nil {
				return nil, errors.Wrapf(err, "site %d: expected type", i)
			}
		}
		if site.Expr, err = b.expr(node.Expr, whole); err != nil {
			return nil, errors.Wrapf(err, "site %d", i)
		}
		f.Sites = append(f.Sites, site)
	}
	logger.Debug("parsed fixture", "name", f.Name, "sites", len(f.Sites), "markers", len(f.Markers), "features", f.Features.String())
	return f, nil
}

// Strategies are the strategies the fixture is checked under: both with
// WITH_NEW_INFERENCE, otherwise the one selected by the NewInference feature
func (f *Fixture) Strategies() []types.Strategy {
	switch {
	case f.Directives.WithNewInference:
		return types.Strategies()
	case f.Features.Enabled(feature.NewInference):
		return []types.Strategy{types.New}
	default:
		return []types.Strategy{types.Legacy}
	}
}

// Expected returns the diagnostics the markers expect from strategy.
// Unprefixed markers belong to the legacy strategy when both run, and to
// the only strategy otherwise.
func (f *Fixture) Expected(strategy types.Strategy) []Diagnostic {
	untagged := types.Legacy.Tag
	if !f.Directives.WithNewInference {
		untagged = f.Strategies()[0].Tag
	}
	var expected []Diagnostic
	for _, m := range f.Markers {
		tag := m.Tag
		if tag == "" {
			tag = untagged
		}
		if tag == strategy.Tag {
			expected = append(expected, Diagnostic{Kind: m.Kind, Range: m.Range})
		}
	}
	return expected
}

// Snippet returns the text covered by r
func (f *Fixture) Snippet(r ir.Range) string {
	start, end := r.Offsets()
	if start < 0 || end > len(f.Text) || start > end {
		return ""
	}
	return f.Text[start:end]
}

// Position returns the line and column r starts at, both from 1
func (f *Fixture) Position(r ir.Range) token.Position {
	fset := token.NewFileSet()
	file := fset.AddFile(f.Name, 1, len(f.Text)+1)
	file.SetLinesForContent([]byte(f.Text))
	return fset.Position(r.Pos())
}

type builder struct {
	text string
}

// locate finds the nth occurrence of at inside within
func (b *builder) locate(at string, nth int, within ir.Range) (ir.Range, error) {
	if at == "" {
		return ir.Range{}, errors.New("missing 'at'")
	}
	start, end := within.Offsets()
	from := start
	for i := 0; ; i++ {
		found := strings.Index(b.text[from:end], at)
		if found < 0 {
			return ir.Range{}, errors.Errorf("%q (occurrence %d) not found in %q", at, nth, b.text[start:end])
		}
		if i == nth {
			return ir.RangeAt(from+found, from+found+len(at)), nil
		}
		from += found + 1
	}
}

func (b *builder) expr(node ExprNode, within ir.Range) (ir.Expr, error) {
	set := 0
	for _, present := range []bool{node.Const != "", node.Ref != "", node.Call != nil, node.Fun != nil, node.Array != nil, node.Block != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, errors.Errorf("expression at %q must have exactly one of const, ref, call, fun, array, block", node.At)
	}

	at := node.At
	if at == "" && node.Ref != "" {
		at = node.Ref
	}
	r, err := b.locate(at, node.Nth, within)
	if err != nil {
		return nil, err
	}

	switch {
	case node.Const != "":
		t, err := symbols.ParseType(node.Const)
		if err != nil {
			return nil, errors.Wrapf(err, "const at %q", at)
		}
		return &ir.Const{Range: r, Type: t}, nil
	case node.Ref != "":
		return &ir.Ref{Range: r, Name: node.Ref}, nil
	case node.Call != nil:
		return b.call(node.Call, r)
	case node.Fun != nil:
		return b.fun(node.Fun, r)
	case node.Array != nil:
		lit := &ir.ArrayLiteral{Range: r}
		for _, element := range node.Array.Elements {
			e, err := b.expr(element, r)
			if err != nil {
				return nil, err
			}
			lit.Elements = append(lit.Elements, e)
		}
		return lit, nil
	default:
		block := &ir.Block{Range: r}
		for _, stmt := range node.Block.Stmts {
			e, err := b.expr(stmt, r)
			if err != nil {
				return nil, err
			}
			block.Stmts = append(block.Stmts, e)
		}
		if node.Block.Result != nil {
			if block.Result, err = b.expr(*node.Block.Result, r); err != nil {
				return nil, err
			}
		}
		return block, nil
	}
}

func (b *builder) call(node *CallNode, r ir.Range) (*ir.Call, error) {
	calleeRange, err := b.locate(node.Callee, 0, r)
	if err != nil {
		return nil, errors.Wrap(err, "callee")
	}
	c := &ir.Call{Range: r, Callee: node.Callee, CalleeRange: calleeRange}
	if node.Annotation {
		c.Context = ir.AnnotationCall
	}
	if node.Receiver != "" {
		if c.Receiver, err = symbols.ParseType(node.Receiver); err != nil {
			return nil, errors.Wrapf(err, "receiver of %s", node.Callee)
		}
		if node.ReceiverAt != "" {
			if c.ReceiverRange, err = b.locate(node.ReceiverAt, 0, r); err != nil {
				return nil, errors.Wrap(err, "receiver")
			}
		}
	}
	for _, src := range node.TypeArgs {
		t, err := symbols.ParseType(src)
		if err != nil {
			return nil, errors.Wrapf(err, "type argument of %s", node.Callee)
		}
		c.TypeArgs = append(c.TypeArgs, t)
	}
	for i, arg := range node.Args {
		value, err := b.expr(arg.Value, r)
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d of %s", i, node.Callee)
		}
		c.Args = append(c.Args, ir.Argument{Name: arg.Name, Spread: arg.Spread, Value: value})
	}
	return c, nil
}

func (b *builder) fun(node *FunNode, r ir.Range) (*ir.FunctionLiteral, error) {
	lit := &ir.FunctionLiteral{Range: r}
	for _, param := range node.Params {
		slot := ir.LiteralParam{Name: param.Name}
		at := param.At
		if param.Type != "" {
			t, err := symbols.ParseType(param.Type)
			if err != nil {
				return nil, errors.Wrapf(err, "parameter %s", param.Name)
			}
			slot.Declared = t
			if at == "" {
				at = param.Name + ": " + param.Type
			}
		}
		if at == "" {
			at = param.Name
		}
		var err error
		if slot.Range, err = b.locate(at, 0, r); err != nil {
			return nil, errors.Wrapf(err, "parameter %s", param.Name)
		}
		lit.Params = append(lit.Params, slot)
	}
	if node.Returns != "" {
		t, err := symbols.ParseType(node.Returns)
		if err != nil {
			return nil, errors.Wrap(err, "return type")
		}
		lit.Return = t
	}
	body, err := b.expr(node.Body, r)
	if err != nil {
		return nil, errors.Wrap(err, "body")
	}
	lit.Body = body
	return lit, nil
}
