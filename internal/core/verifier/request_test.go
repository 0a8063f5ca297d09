package verifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkid/pkg/types"
)

const proofJSON = `{"pi_a":["1","2","1"],"pi_b":[["1","2"],["3","4"],["1","0"]],"pi_c":["5","6","1"],"protocol":"groth16","curve":"bn128"}`

// TestParseRequest 测试边界解析
func TestParseRequest(t *testing.T) {
	t.Run("单声明", func(t *testing.T) {
		req, err := ParseRequest([]byte(`{
			"claimType": "age",
			"proof": ` + proofJSON + `,
			"publicSignals": ["1", "18", "2026", "3", "4"],
			"nonce": "abc",
			"requestTimestamp": "2026-06-01T12:00:00.123Z"
		}`))
		require.NoError(t, err)
		assert.Equal(t, RequestSingle, req.Kind)
		require.NotNil(t, req.Single)
		assert.Equal(t, types.ClaimAge, req.Single.ClaimType)
		assert.Len(t, req.Single.Proof.PiA, 3, "射影坐标保留给证明系统忽略")
		assert.Equal(t, int64(1780315200123), req.Single.RequestTimestamp.UnixMilli())
	})

	t.Run("签名证明", func(t *testing.T) {
		req, err := ParseRequest([]byte(`{
			"claimType": "nationality",
			"issuer": "gov",
			"proof": ` + proofJSON + `,
			"publicSignals": ["1", "756", "3", "4", "5"],
			"nonce": "abc",
			"requestTimestamp": "2026-06-01T12:00:00Z"
		}`))
		require.NoError(t, err)
		assert.Equal(t, RequestSigned, req.Kind)
		assert.Equal(t, "gov", req.Signed.Issuer)
		assert.Equal(t, types.ClaimNationality, req.Signed.ClaimType)
	})

	t.Run("多声明继承包级nonce", func(t *testing.T) {
		req, err := ParseRequest([]byte(`{
			"nonce": "shared",
			"requestTimestamp": "2026-06-01T12:00:00Z",
			"proofs": [
				{"claimType": "age", "proof": ` + proofJSON + `, "publicSignals": ["1"]},
				{"claimType": "nationality", "proof": ` + proofJSON + `, "publicSignals": ["1"], "nonce": "shared"}
			]
		}`))
		require.NoError(t, err)
		assert.Equal(t, RequestMulti, req.Kind)
		require.Len(t, req.Multi.Proofs, 2)
		for _, p := range req.Multi.Proofs {
			assert.Equal(t, "shared", p.Nonce)
			assert.True(t, p.RequestTimestamp.Equal(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)))
		}
	})

	cases := []struct {
		name string
		body string
	}{
		{"非JSON", `not json`},
		{"时间戳格式错误", `{"claimType":"age","proof":` + proofJSON + `,"publicSignals":["1"],"nonce":"a","requestTimestamp":"yesterday"}`},
		{"缺少声明类型", `{"proof":` + proofJSON + `,"publicSignals":["1"],"nonce":"a","requestTimestamp":"2026-06-01T12:00:00Z"}`},
		{"缺少nonce", `{"claimType":"age","proof":` + proofJSON + `,"publicSignals":["1"],"requestTimestamp":"2026-06-01T12:00:00Z"}`},
		{"pi_b形状错误", `{"claimType":"age","proof":{"pi_a":["1","2"],"pi_b":[["1"],["2"]],"pi_c":["1","2"]},"publicSignals":["1"],"nonce":"a","requestTimestamp":"2026-06-01T12:00:00Z"}`},
		{"签名证明缺少发行方", `{"issuer":"","claimType":"age","proof":` + proofJSON + `,"publicSignals":["1"],"nonce":"a","requestTimestamp":"2026-06-01T12:00:00Z"}`},
		{"空多声明包", `{"proofs":[],"nonce":"a","requestTimestamp":"2026-06-01T12:00:00Z"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRequest([]byte(tc.body))
			assert.ErrorIs(t, err, types.ErrValidation)
		})
	}
}
