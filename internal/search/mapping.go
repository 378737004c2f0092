package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for catalog documents.
//
// name is analyzed with the English analyzer for matching whole words,
// name_prefix with the simple analyzer so typeahead prefixes see unstemmed
// lowercase tokens.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = en.AnalyzerName
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	prefixFieldMapping := bleve.NewTextFieldMapping()
	prefixFieldMapping.Analyzer = simple.Name
	prefixFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("name_prefix", prefixFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	idFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	// --- Numeric fields (filtering, sorting) ---

	bggIDFieldMapping := bleve.NewNumericFieldMapping()
	bggIDFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("bgg_id", bggIDFieldMapping)

	yearFieldMapping := bleve.NewNumericFieldMapping()
	yearFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("year_published", yearFieldMapping)

	rankFieldMapping := bleve.NewNumericFieldMapping()
	rankFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("rank", rankFieldMapping)

	expansionFieldMapping := bleve.NewBooleanFieldMapping()
	expansionFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("is_expansion", expansionFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
