package types

// SignalLayout 公开信号下标布局，-1 表示该声明类型不包含此信号
type SignalLayout struct {
	CredentialHash    int
	MerkleRoot        int
	MinAge            int
	CurrentYear       int
	TargetNationality int
	Nonce             int
	RequestTimestamp  int
	IssuerKey         int
	Count             int
}

// LayoutFor 返回声明类型的公开信号布局
//
// 📋 布局：
//   - age:                   [credentialHash, minAge, currentYear, nonce, requestTimestamp]
//   - nationality:           [credentialHash, targetNationality, nonce, requestTimestamp]
//   - age-revocable:         [credentialHash, merkleRoot, minAge, currentYear, nonce, requestTimestamp]
//   - nationality-revocable: [credentialHash, merkleRoot, targetNationality, nonce, requestTimestamp]
//   - 签名变体在末尾追加 issuerKey
func LayoutFor(claimType ClaimType, signed bool) (SignalLayout, bool) {
	l := SignalLayout{
		CredentialHash: 0, MerkleRoot: -1, MinAge: -1, CurrentYear: -1,
		TargetNationality: -1, Nonce: -1, RequestTimestamp: -1, IssuerKey: -1,
	}
	next := 1
	if claimType.IsRevocable() {
		l.MerkleRoot = next
		next++
	}
	switch claimType {
	case ClaimAge, ClaimAgeRevocable:
		l.MinAge, l.CurrentYear = next, next+1
		next += 2
	case ClaimNationality, ClaimNationalityRevocable:
		l.TargetNationality = next
		next++
	default:
		return SignalLayout{}, false
	}
	l.Nonce, l.RequestTimestamp = next, next+1
	next += 2
	if signed {
		l.IssuerKey = next
		next++
	}
	l.Count = next
	return l, true
}
