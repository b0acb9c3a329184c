package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration indica convenção de início de semana ou posição desconhecida
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidTemplate indica um card ou checklist fora das restrições do catálogo
	ErrInvalidTemplate = errors.New("invalid template")

	// ErrRemoteOperationFailed indica que uma chamada ao board falhou após os retries
	ErrRemoteOperationFailed = errors.New("remote operation failed")

	// ErrRateLimited indica que a API do Trello retornou 429
	ErrRateLimited = errors.New("rate limit exceeded on the Trello API")

	// ErrUnauthorized indica key/token inválidos
	ErrUnauthorized = errors.New("Trello key or token invalid or expired")

	// ErrNotFound indica recurso não encontrado
	ErrNotFound = errors.New("resource not found on Trello")

	// ErrTimeout indica timeout na requisição
	ErrTimeout = errors.New("timeout on Trello request")

	// ErrInvalidResponse indica resposta inválida da API
	ErrInvalidResponse = errors.New("invalid response from the Trello API")
)

// RemoteError describes a board call that did not succeed. Op names the
// gateway operation (create_list, create_card, ...), Status is the last HTTP
// status seen, zero when the request never got a response.
type RemoteError struct {
	Op     string
	Status int
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", ErrRemoteOperationFailed, e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrRemoteOperationFailed, e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Is makes every RemoteError match ErrRemoteOperationFailed.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteOperationFailed
}
