package pool

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// DefaultFactory is the canonical V3 factory on Ethereum mainnet.
var DefaultFactory = common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")

// poolInitCodeHash is the keccak256 of the pool creation bytecode used by the
// canonical factory.
var poolInitCodeHash = common.HexToHash("0xe34f199b19b2b4f47f68442619d555527d244f78a3297ea89325f843f87b8b54")

// DeriveAddress computes the deterministic CREATE2 pool address for a token
// pair and fee tier. Token order does not matter; the pair is sorted before
// hashing. Identical or zero token addresses are rejected.
func DeriveAddress(factory, tokenA, tokenB common.Address, fee uint32) (common.Address, error) {
	if tokenA == tokenB {
		return common.Address{}, fmt.Errorf("identical token addresses: %s", tokenA.Hex())
	}
	if tokenA == (common.Address{}) || tokenB == (common.Address{}) {
		return common.Address{}, fmt.Errorf("zero token address in pair %s/%s", tokenA.Hex(), tokenB.Hex())
	}
	if factory == (common.Address{}) {
		return common.Address{}, fmt.Errorf("zero factory address")
	}

	token0, token1 := tokenA, tokenB
	if bytes.Compare(token0.Bytes(), token1.Bytes()) > 0 {
		token0, token1 = token1, token0
	}

	// salt = keccak256(abi.encode(token0, token1, fee))
	encoded := make([]byte, 0, 96)
	encoded = append(encoded, common.LeftPadBytes(token0.Bytes(), 32)...)
	encoded = append(encoded, common.LeftPadBytes(token1.Bytes(), 32)...)
	encoded = append(encoded, common.LeftPadBytes(new(big.Int).SetUint64(uint64(fee)).Bytes(), 32)...)
	salt := crypto.Keccak256Hash(encoded)

	payload := make([]byte, 0, 85)
	payload = append(payload, 0xff)
	payload = append(payload, factory.Bytes()...)
	payload = append(payload, salt.Bytes()...)
	payload = append(payload, poolInitCodeHash.Bytes()...)

	return common.BytesToAddress(crypto.Keccak256(payload)[12:]), nil
}
