package dto

// AnalyzeRequest is the body POSTed to the backend analysis endpoint.
type AnalyzeRequest struct {
	Edital       string   `json:"edital"`
	Matricula    string   `json:"matricula"`
	TipoImovel   string   `json:"tipo_imovel"`
	AreaTotal    float64  `json:"area_total"`
	Endereco     string   `json:"endereco"`
	ValorInicial float64  `json:"valor_inicial"`
	ValorAtual   float64  `json:"valor_atual"`
	DataInicio   string   `json:"data_inicio"`
	Documentos   []string `json:"documentos"`
}

// ExtractionPayload mirrors what the extraction endpoint returns. Responses
// are read leniently with gjson; this type is only used to render a
// canonical record back into the backend shape.
type ExtractionPayload struct {
	DadosImovel   ExtractionProperty `json:"dados_imovel"`
	TipoLeilao    string             `json:"tipo_leilao"`
	DataFim       string             `json:"data_fim"`
	Documentos    []string           `json:"documentos"`
	Recomendacoes []string           `json:"recomendacoes"`
}

type ExtractionProperty struct {
	Titulo       string   `json:"titulo"`
	TipoImovel   string   `json:"tipo_imovel"`
	AreaTotal    float64  `json:"area_total"`
	Endereco     string   `json:"endereco"`
	Bairro       string   `json:"bairro"`
	Cidade       string   `json:"cidade"`
	Estado       string   `json:"estado"`
	ValorInicial float64  `json:"valor_inicial"`
	ValorAtual   float64  `json:"valor_atual"`
	DataInicio   string   `json:"data_inicio"`
	Imagens      []string `json:"imagens"`
}
