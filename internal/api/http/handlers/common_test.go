package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/weisyn/zkid/internal/core/verifier"
)

func TestStatusFor(t *testing.T) {
	verbose := map[verifier.ErrorKind]int{
		verifier.KindValidation:      http.StatusBadRequest,
		verifier.KindReplay:          http.StatusConflict,
		verifier.KindRevocation:      http.StatusForbidden,
		verifier.KindTrust:           http.StatusForbidden,
		verifier.KindRateLimited:     http.StatusTooManyRequests,
		verifier.KindProtocolVersion: http.StatusUpgradeRequired,
		verifier.KindCapacity:        http.StatusServiceUnavailable,
		verifier.KindProvingSystem:   http.StatusInternalServerError,
		verifier.KindConfig:          http.StatusInternalServerError,
		verifier.KindInternal:        http.StatusInternalServerError,
	}
	for kind, want := range verbose {
		status, code := StatusFor(kind, true)
		assert.Equal(t, want, status, kind)
		assert.NotEmpty(t, code)
	}

	t.Run("静默模式下敏感类别不可区分", func(t *testing.T) {
		for _, kind := range []verifier.ErrorKind{verifier.KindReplay, verifier.KindRevocation, verifier.KindTrust} {
			status, _ := StatusFor(kind, false)
			assert.Equal(t, http.StatusForbidden, status, kind)
		}
		status, _ := StatusFor(verifier.KindValidation, false)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}
