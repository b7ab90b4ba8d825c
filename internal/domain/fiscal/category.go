package fiscal

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CategoryID represents an inferred expense category
type CategoryID string

const (
	CategorySupermarket CategoryID = "SUPERMARKET" // Supermercado
	CategoryRestaurant  CategoryID = "RESTAURANT"  // Alimentação fora de casa
	CategoryFuel        CategoryID = "FUEL"        // Combustível
	CategoryPharmacy    CategoryID = "PHARMACY"    // Farmácia e saúde
	CategoryClothing    CategoryID = "CLOTHING"    // Vestuário
	CategoryHome        CategoryID = "HOME"        // Casa e construção
	CategoryElectronics CategoryID = "ELECTRONICS" // Eletrônicos
	CategoryTransport   CategoryID = "TRANSPORT"   // Transporte
	CategoryPet         CategoryID = "PET"         // Pet shop
	CategoryServices    CategoryID = "SERVICES"    // Serviços
)

// IsValid checks if the category is a valid CategoryID
func (c CategoryID) IsValid() bool {
	switch c {
	case CategorySupermarket, CategoryRestaurant, CategoryFuel, CategoryPharmacy,
		CategoryClothing, CategoryHome, CategoryElectronics, CategoryTransport,
		CategoryPet, CategoryServices:
		return true
	}
	return false
}

// String returns the string representation of CategoryID
func (c CategoryID) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the category
func (c CategoryID) DisplayName() string {
	switch c {
	case CategorySupermarket:
		return "Supermercado"
	case CategoryRestaurant:
		return "Restaurante"
	case CategoryFuel:
		return "Combustível"
	case CategoryPharmacy:
		return "Farmácia"
	case CategoryClothing:
		return "Vestuário"
	case CategoryHome:
		return "Casa e Construção"
	case CategoryElectronics:
		return "Eletrônicos"
	case CategoryTransport:
		return "Transporte"
	case CategoryPet:
		return "Pet Shop"
	case CategoryServices:
		return "Serviços"
	default:
		return string(c)
	}
}

// CategoryKeywords pairs a category with the ordered keywords that vote for
// it. Keywords must be lowercase.
type CategoryKeywords struct {
	Category CategoryID
	Keywords []string
}

// KeywordTable is the ordered, immutable keyword configuration the
// categorization engine runs against. Table order breaks exact-length ties:
// the first listed category wins.
type KeywordTable []CategoryKeywords

// DefaultKeywordTable returns the built-in issuer-name keyword table.
func DefaultKeywordTable() KeywordTable {
	return KeywordTable{
		{Category: CategorySupermarket, Keywords: []string{
			"supermercado", "hipermercado", "mercado", "mercearia", "atacadao",
			"atacadista", "sacolao", "hortifruti", "emporio", "bretas",
			"carrefour", "assai", "pao de acucar", "extra", "big bompreco",
		}},
		{Category: CategoryRestaurant, Keywords: []string{
			"restaurante", "churrascaria", "pizzaria", "lanchonete", "padaria",
			"panificadora", "confeitaria", "hamburgueria", "sorveteria",
			"cafeteria", "bar e ", "pastelaria", "self service", "espetinho",
		}},
		{Category: CategoryFuel, Keywords: []string{
			"auto posto", "posto de combustivel", "posto de gasolina", "posto",
			"combustiveis", "shell", "ipiranga", "petrobras", "ale combustiveis",
		}},
		{Category: CategoryPharmacy, Keywords: []string{
			"farmacia", "drogaria", "drogasil", "droga raia", "pague menos",
			"laboratorio", "otica", "oticas",
		}},
		{Category: CategoryClothing, Keywords: []string{
			"confeccoes", "vestuario", "calcados", "modas", "boutique",
			"magazine", "lojas renner", "riachuelo", "malhas",
		}},
		{Category: CategoryHome, Keywords: []string{
			"materiais de construcao", "material de construcao", "madeireira",
			"ferragens", "tintas", "moveis", "eletro", "utilidades",
		}},
		{Category: CategoryElectronics, Keywords: []string{
			"informatica", "eletronicos", "celulares", "telefonia",
		}},
		{Category: CategoryTransport, Keywords: []string{
			"auto pecas", "autopecas", "pneus", "oficina mecanica",
			"estacionamento", "lava jato",
		}},
		{Category: CategoryPet, Keywords: []string{
			"pet shop", "petshop", "agropecuaria", "veterinaria", "racoes",
		}},
		{Category: CategoryServices, Keywords: []string{
			"servicos", "assistencia tecnica", "lavanderia", "graficas",
			"grafica", "cartorio",
		}},
	}
}

// accent-stripping transformer shared by all Categorize calls
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldAccents removes combining marks so "Padaria São João" matches "sao joao".
func foldAccents(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return out
}

// normalizeIssuerName lowercases, folds accents and collapses punctuation
// runs into single spaces.
func normalizeIssuerName(name string) string {
	folded := foldAccents(strings.ToLower(name))
	var b strings.Builder
	b.Grow(len(folded))
	lastSpace := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Categorize infers an expense category from a free-text issuer name using a
// greedy longest-keyword heuristic. Both the raw lowercase form and the
// accent-folded normalized form are probed so accented and folded keywords
// match. The longest matching keyword wins; exact-length ties go to the
// category listed first. A nil result means no keyword matched and the note
// stays uncategorized. Deterministic for the same (name, table) pair.
func Categorize(issuerName string, table KeywordTable) *CategoryID {
	if issuerName == "" {
		return nil
	}
	rawLower := strings.ToLower(issuerName)
	normalized := normalizeIssuerName(issuerName)

	var best *CategoryID
	bestLen := 0
	for _, entry := range table {
		for _, keyword := range entry.Keywords {
			if len(keyword) <= bestLen {
				continue
			}
			if strings.Contains(rawLower, keyword) || strings.Contains(normalized, keyword) {
				c := entry.Category
				best = &c
				bestLen = len(keyword)
			}
		}
	}
	return best
}
