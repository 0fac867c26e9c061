package service

import (
	"errors"
	"fmt"
)

const (
	EndpointExtract = "extract"
	EndpointAnalyze = "analyze"
)

// Notification titles and fallback messages shown to the user.
const (
	ExtractSucceededTitle  = "Dados extraídos com sucesso!"
	ExtractSucceededDetail = "Agora você pode complementar as informações necessárias."
	ExtractFailedTitle     = "Erro ao extrair dados"
	SubmitSucceededTitle   = "Análise concluída com sucesso!"
	SubmitSucceededDetail  = "Os dados foram processados e estão prontos para visualização."
	SubmitFailedTitle      = "Erro ao processar análise"

	extractGenericMessage = "Ocorreu um erro ao extrair os dados do imóvel"
	submitGenericMessage  = "Ocorreu um erro ao processar a análise. Por favor, tente novamente."
)

// BackendError reports a failed call to the analysis backend. Message is
// always safe to show to the user.
type BackendError struct {
	Endpoint string
	Status   int
	Message  string
	Err      error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend %s failed: %s: %v", e.Endpoint, e.Message, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("backend %s failed with status %d: %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("backend %s failed: %s", e.Endpoint, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Transport reports whether the request never produced a response.
func (e *BackendError) Transport() bool {
	return e.Err != nil
}

func transportError(endpoint string, err error) *BackendError {
	msg := extractGenericMessage
	if endpoint == EndpointAnalyze {
		msg = submitGenericMessage
	}
	return &BackendError{Endpoint: endpoint, Message: msg, Err: err}
}

// UserMessage returns the text to show for a failed call to endpoint.
func UserMessage(endpoint string, err error) string {
	var be *BackendError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	if endpoint == EndpointAnalyze {
		return submitGenericMessage
	}
	return extractGenericMessage
}
