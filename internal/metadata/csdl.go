package metadata

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
)

// EDMX document shapes. Element names are matched by local name, so the
// 3.0 and 4.0 namespaces both decode.
type edmx struct {
	XMLName      xml.Name     `xml:"Edmx"`
	Version      string       `xml:"Version,attr"`
	DataServices dataServices `xml:"DataServices"`
}

type dataServices struct {
	Schemas []csdlSchema `xml:"Schema"`
}

type csdlSchema struct {
	Namespace    string            `xml:"Namespace,attr"`
	Alias        string            `xml:"Alias,attr"`
	EntityTypes  []csdlEntityType  `xml:"EntityType"`
	ComplexTypes []csdlEntityType  `xml:"ComplexType"`
	Associations []csdlAssociation `xml:"Association"`
	Containers   []csdlContainer   `xml:"EntityContainer"`
}

type csdlEntityType struct {
	Name        string           `xml:"Name,attr"`
	BaseType    string           `xml:"BaseType,attr"`
	Keys        []csdlRef        `xml:"Key>PropertyRef"`
	Properties  []csdlProperty   `xml:"Property"`
	Navigations []csdlNavigation `xml:"NavigationProperty"`
}

type csdlRef struct {
	Name string `xml:"Name,attr"`
}

type csdlProperty struct {
	Name     string `xml:"Name,attr"`
	Type     string `xml:"Type,attr"`
	Nullable string `xml:"Nullable,attr"`
}

type csdlNavigation struct {
	Name string `xml:"Name,attr"`
	Type string `xml:"Type,attr"` // 4.0

	Relationship string `xml:"Relationship,attr"` // 3.0
	ToRole       string `xml:"ToRole,attr"`
}

type csdlAssociation struct {
	Name string    `xml:"Name,attr"`
	Ends []csdlEnd `xml:"End"`
}

type csdlEnd struct {
	Role         string `xml:"Role,attr"`
	Type         string `xml:"Type,attr"`
	Multiplicity string `xml:"Multiplicity,attr"`
}

type csdlContainer struct {
	EntitySets []csdlEntitySet `xml:"EntitySet"`
}

type csdlEntitySet struct {
	Name       string `xml:"Name,attr"`
	EntityType string `xml:"EntityType,attr"`
}

// ParseCSDL reads an EDMX $metadata document (OData 3.0 or 4.0).
//
// Every entity set becomes a resource named after the set. Entity types
// without a set (derived types, types only reachable by navigation) become
// resources named after the type, with Cast set to the qualified type name.
// Complex types become resources named by their qualified type name, which
// is what structural properties refer to.
func ParseCSDL(r io.Reader) (*Static, error) {
	var doc edmx
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode $metadata: %w", err)
	}
	if len(doc.DataServices.Schemas) == 0 {
		return nil, fmt.Errorf("decode $metadata: no schemas")
	}

	p := newCSDLParser(doc.DataServices.Schemas)
	return NewStatic(p.resources()...)
}

type qualifiedType struct {
	namespace string
	def       csdlEntityType
}

type csdlParser struct {
	schemas []csdlSchema
	aliases map[string]string // alias -> namespace

	entityTypes  map[string]qualifiedType // qualified name -> type
	complexTypes map[string]qualifiedType
	associations map[string]csdlAssociation // qualified name -> association

	typeOrder []string          // qualified entity type names, document order
	sets      []csdlEntitySet   // document order
	setByType map[string]string // qualified type -> first entity set name
}

func newCSDLParser(schemas []csdlSchema) *csdlParser {
	p := &csdlParser{
		schemas:      schemas,
		aliases:      make(map[string]string),
		entityTypes:  make(map[string]qualifiedType),
		complexTypes: make(map[string]qualifiedType),
		associations: make(map[string]csdlAssociation),
		setByType:    make(map[string]string),
	}

	for _, s := range schemas {
		if s.Alias != "" {
			p.aliases[s.Alias] = s.Namespace
		}
	}
	for _, s := range schemas {
		for _, et := range s.EntityTypes {
			qn := s.Namespace + "." + et.Name
			p.entityTypes[qn] = qualifiedType{namespace: s.Namespace, def: et}
			p.typeOrder = append(p.typeOrder, qn)
		}
		for _, ct := range s.ComplexTypes {
			p.complexTypes[s.Namespace+"."+ct.Name] = qualifiedType{namespace: s.Namespace, def: ct}
		}
		for _, a := range s.Associations {
			p.associations[s.Namespace+"."+a.Name] = a
		}
		for _, c := range s.Containers {
			for _, set := range c.EntitySets {
				p.sets = append(p.sets, set)
				qn := p.qualify(set.EntityType)
				if _, ok := p.setByType[qn]; !ok {
					p.setByType[qn] = set.Name
				}
			}
		}
	}
	return p
}

// qualify resolves a schema alias prefix to its namespace.
func (p *csdlParser) qualify(name string) string {
	dot := strings.LastIndex(name, ".")
	if dot < 0 {
		return name
	}
	if ns, ok := p.aliases[name[:dot]]; ok {
		return ns + "." + name[dot+1:]
	}
	return name
}

// resourceName returns the resource a qualified entity type is addressed by.
func (p *csdlParser) resourceName(qn string) string {
	if set, ok := p.setByType[qn]; ok {
		return set
	}
	if _, ok := p.entityTypes[qn]; ok {
		return qn[strings.LastIndex(qn, ".")+1:]
	}
	return qn
}

func (p *csdlParser) resources() []*Resource {
	var out []*Resource

	for _, set := range p.sets {
		out = append(out, p.entityResource(set.Name, p.qualify(set.EntityType)))
	}

	for _, qn := range p.typeOrder {
		if _, ok := p.setByType[qn]; ok {
			continue
		}
		r := p.entityResource(p.resourceName(qn), qn)
		if r.Base != "" {
			r.Cast = qn
		}
		out = append(out, r)
	}

	for _, qn := range ir.SortedKeys(p.complexTypes) {
		ct := p.complexTypes[qn]
		out = append(out, &Resource{
			Name:       qn,
			Properties: p.properties(ct.def),
			Complex:    true,
		})
	}
	return out
}

// entityResource converts the entity type qn into a resource called name.
func (p *csdlParser) entityResource(name, qn string) *Resource {
	et := p.entityTypes[qn]
	r := &Resource{
		Name:        name,
		Properties:  p.properties(et.def),
		Navigations: p.navigations(et),
	}
	for _, k := range et.def.Keys {
		r.Keys = append(r.Keys, k.Name)
	}
	if et.def.BaseType != "" {
		base := p.qualify(et.def.BaseType)
		r.Base = p.resourceName(base)
		// Keys live on the root type; a set over a derived type is
		// self-contained, so copy the base's members in.
		if _, isSet := p.setByType[qn]; isSet {
			p.inline(r, base)
		}
	}
	return r
}

// inline copies the members of base and its ancestors into r and clears
// Base, for entity sets declared over a derived type.
func (p *csdlParser) inline(r *Resource, base string) {
	seen := make(map[string]bool)
	for base != "" && !seen[base] {
		seen[base] = true
		bt, ok := p.entityTypes[base]
		if !ok {
			break
		}
		r.Properties = append(p.properties(bt.def), r.Properties...)
		r.Navigations = append(p.navigations(bt), r.Navigations...)
		if len(r.Keys) == 0 {
			for _, k := range bt.def.Keys {
				r.Keys = append(r.Keys, k.Name)
			}
		}
		base = p.qualify(bt.def.BaseType)
	}
	r.Base = ""
}

func (p *csdlParser) properties(def csdlEntityType) []Property {
	props := make([]Property, 0, len(def.Properties))
	for _, prop := range def.Properties {
		typ := prop.Type
		if elem, ok := CollectionElement(typ); ok {
			typ = "Collection(" + p.qualify(elem) + ")"
		} else {
			typ = p.qualify(typ)
		}
		props = append(props, Property{
			Name:     prop.Name,
			Type:     typ,
			Nullable: !strings.EqualFold(prop.Nullable, "false"),
		})
	}
	return props
}

func (p *csdlParser) navigations(et qualifiedType) []Navigation {
	var navs []Navigation
	for _, nav := range et.def.Navigations {
		n := Navigation{Name: nav.Name}
		switch {
		case nav.Type != "":
			target, coll := CollectionElement(nav.Type)
			n.Target = p.resourceName(p.qualify(target))
			n.Collection = coll
		case nav.Relationship != "":
			assoc, ok := p.associations[p.qualify(nav.Relationship)]
			if !ok {
				continue
			}
			for _, end := range assoc.Ends {
				if end.Role == nav.ToRole {
					n.Target = p.resourceName(p.qualify(end.Type))
					n.Collection = end.Multiplicity == "*"
				}
			}
		}
		if n.Target == "" {
			continue
		}
		navs = append(navs, n)
	}
	return navs
}
