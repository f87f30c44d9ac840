package mcpserver

// ParamContract describes how node parameters are edited through the tools.
const ParamContract = `# Nodeforge Parameter Contract

Every node has a type from the catalog (` + "`list_node_types`" + `). The type fixes
the node's parameters: their names, their order and their widget type.

## Values

- Every parameter value is a string, except ` + "`Keywords`" + ` which is a list of strings.
- Numbers are sent as text and stored verbatim; nothing is coerced.

## Widget types

| Type             | Edit with ` + "`set_param`" + `                                       |
|------------------|---------------------------------------------------------------|
| str              | any text                                                      |
| ExpandableText   | any text; the same value as the expanded editor               |
| Keywords         | one keyword at a time: pass ` + "`slot`" + ` (0-based) and the text |
| LlmProviderId    | a provider id; changing provider clears ` + "`llm_model`" + `        |
| LlmModel         | a model offered for the selected provider                     |
| SourceMaterialId | a source material id, or empty for none                       |
| HistoryType      | one of none, node, global, named                              |
| MaxTokenLimit    | integer text                                                  |
| LlmTemperature   | decimal text                                                  |
| NumOutputs       | integer text; raises the number of keyword slots              |

## Rules

1. Select the provider **before** the model. Selecting a different provider
   always empties the model.
2. A RouterNode has one output per keyword slot: ` + "`output_0`" + `, ` + "`output_1`" + `, ...
   A slot must be an existing one or the next one; at most 64 slots exist.
3. A BooleanNode has ` + "`output_true`" + ` and ` + "`output_false`" + `. An EndNode has none.
   Every other node has a single ` + "`output`" + `.
4. Options for providers, models and source materials come from
   ` + "`list_options`" + `; the lists may change while you work.
`
