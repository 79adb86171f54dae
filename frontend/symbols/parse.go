package symbols

import (
	"fmt"
	"slices"
	"strings"
	"text/scanner"

	"github.com/cottand/callinfer/frontend/ir"
)

// Declaration is the result of parsing one declaration.
// A class with a primary constructor yields both a Class and a Signature.
type Declaration struct {
	Class     *Class
	Signature *Signature
}

// ParseType parses a type like "(Int) -> List<T>".
// Names listed in typeParams are parsed as *ir.TypeParam
func ParseType(src string, typeParams ...string) (ir.Type, error) {
	p := newParser(src)
	p.typeParams = typeParams
	t := p.parseType()
	p.expect(scanner.EOF)
	if p.err != nil {
		return nil, p.err
	}
	return t, nil
}

// MustParseType is like ParseType but panics on malformed input
func MustParseType(src string, typeParams ...string) ir.Type {
	t, err := ParseType(src, typeParams...)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseDeclaration parses one of
//
//	[annotation] class Name[<[in|out] T, ...>][(params)][ : Super, ...]
//	fun [<T, ...>] [Receiver.]name(params)[: Returns]
//
// where params are [vararg] [val] name: Type [= default]
func ParseDeclaration(src string) (Declaration, error) {
	p := newParser(src)
	annotation := false
	for p.tok == scanner.Ident && p.text == "annotation" {
		annotation = true
		p.next()
	}
	var decl Declaration
	switch {
	case p.tok == scanner.Ident && p.text == "class":
		p.next()
		decl = p.parseClass(annotation)
	case p.tok == scanner.Ident && p.text == "fun" && !annotation:
		p.next()
		decl = Declaration{Signature: p.parseFun()}
	default:
		p.fail("expected 'class' or 'fun'")
	}
	p.expect(scanner.EOF)
	if p.err != nil {
		return Declaration{}, p.err
	}
	return decl, nil
}

type parser struct {
	s          scanner.Scanner
	tok        rune
	text       string
	typeParams []string
	err        error
}

func newParser(src string) *parser {
	p := &parser{}
	p.s.Init(strings.NewReader(src))
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanStrings | scanner.SkipComments
	p.s.Error = func(s *scanner.Scanner, msg string) {
		p.fail(msg)
	}
	p.next()
	return p
}

func (p *parser) next() {
	p.tok = p.s.Scan()
	p.text = p.s.TokenText()
}

func (p *parser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("%s: %s", p.s.Position, fmt.Sprintf(format, args...))
	}
	// jump to the end so that callers stop consuming
	p.tok = scanner.EOF
}

func (p *parser) expect(tok rune) {
	if p.tok != tok {
		p.fail("expected %s, found %q", scanner.TokenString(tok), p.text)
		return
	}
	p.next()
}

func (p *parser) ident() string {
	if p.tok != scanner.Ident {
		p.fail("expected identifier, found %q", p.text)
		return ""
	}
	name := p.text
	p.next()
	return name
}

// parseType parses function types, parenthesised types and named types
func (p *parser) parseType() ir.Type {
	if p.tok == '(' {
		p.next()
		var params []ir.Type
		for p.tok != ')' && p.tok != scanner.EOF {
			params = append(params, p.parseType())
			if p.tok != ',' {
				break
			}
			p.next()
		}
		p.expect(')')
		if p.tok != '-' {
			if len(params) != 1 {
				p.fail("expected '->' after parameter list")
				return ir.Error
			}
			return params[0]
		}
		p.next()
		p.expect('>')
		return &ir.Func{Params: params, Ret: p.parseType()}
	}
	name := p.ident()
	if slices.Contains(p.typeParams, name) {
		return &ir.TypeParam{Name: name}
	}
	named := &ir.Named{Name: name}
	if p.tok == '<' {
		p.next()
		for p.tok != '>' && p.tok != scanner.EOF {
			named.Args = append(named.Args, p.parseType())
			if p.tok != ',' {
				break
			}
			p.next()
		}
		p.expect('>')
	}
	return named
}

func (p *parser) parseTypeParams() []TypeParamDef {
	if p.tok != '<' {
		return nil
	}
	p.next()
	var defs []TypeParamDef
	for p.tok != '>' && p.tok != scanner.EOF {
		def := TypeParamDef{}
		if p.tok == scanner.Ident && (p.text == "in" || p.text == "out") {
			if p.text == "in" {
				def.Variance = Contravariant
			} else {
				def.Variance = Covariant
			}
			p.next()
		}
		def.Name = p.ident()
		defs = append(defs, def)
		if p.tok != ',' {
			break
		}
		p.next()
	}
	p.expect('>')
	return defs
}

func (p *parser) parseParams() []Param {
	p.expect('(')
	var params []Param
	for p.tok != ')' && p.tok != scanner.EOF {
		param := Param{}
		for p.tok == scanner.Ident && (p.text == "vararg" || p.text == "val" || p.text == "var") {
			param.Vararg = param.Vararg || p.text == "vararg"
			p.next()
		}
		param.Name = p.ident()
		p.expect(':')
		param.Type = p.parseType()
		if p.tok == '=' {
			param.HasDefault = true
			p.skipDefault()
		}
		params = append(params, param)
		if p.tok != ',' {
			break
		}
		p.next()
	}
	p.expect(')')
	return params
}

// skipDefault consumes a default value up to the next top-level ',' or ')'
func (p *parser) skipDefault() {
	depth := 0
	for p.next(); p.tok != scanner.EOF; p.next() {
		switch p.tok {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth == 0 {
				return
			}
			depth--
		case ',':
			if depth == 0 {
				return
			}
		}
	}
}

func (p *parser) parseClass(annotation bool) Declaration {
	class := &Class{Annotation: annotation}
	class.Name = p.ident()
	class.TypeParams = p.parseTypeParams()
	for _, param := range class.TypeParams {
		p.typeParams = append(p.typeParams, param.Name)
	}

	var ctor *Signature
	if p.tok == '(' {
		ctor = &Signature{Name: class.Name, Params: p.parseParams()}
	}
	if p.tok == ':' {
		p.next()
		for p.tok != scanner.EOF {
			super, ok := p.parseType().(*ir.Named)
			if !ok {
				p.fail("supertype of %s must be a named type", class.Name)
				break
			}
			class.Supertypes = append(class.Supertypes, super)
			if p.tok != ',' {
				break
			}
			p.next()
		}
	}
	if ctor != nil {
		self := &ir.Named{Name: class.Name}
		for _, param := range class.TypeParams {
			ctor.TypeParams = append(ctor.TypeParams, param.Name)
			self.Args = append(self.Args, &ir.TypeParam{Name: param.Name})
		}
		ctor.Returns = self
	}
	return Declaration{Class: class, Signature: ctor}
}

func (p *parser) parseFun() *Signature {
	sig := &Signature{}
	for _, param := range p.parseTypeParams() {
		if param.Variance != Invariant {
			p.fail("function type parameters cannot declare variance")
		}
		sig.TypeParams = append(sig.TypeParams, param.Name)
	}
	p.typeParams = append(p.typeParams, sig.TypeParams...)

	// either the name or a receiver type followed by '.'
	head := p.parseType()
	if p.tok == '.' {
		p.next()
		sig.Receiver = head
		sig.Name = p.ident()
	} else if named, ok := head.(*ir.Named); ok && len(named.Args) == 0 {
		sig.Name = named.Name
	} else {
		p.fail("expected function name, found %s", head)
	}
	sig.Params = p.parseParams()
	sig.Returns = ir.UnitType
	if p.tok == ':' {
		p.next()
		sig.Returns = p.parseType()
	}
	return sig
}
