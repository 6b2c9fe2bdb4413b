// Package ledger talks to the TARReceipt contract. The live client signs
// and submits real transactions; the simulated client synthesizes results
// when no signing key is configured. Which one a deployment gets is decided
// once, in New.
package ledger

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"tarledger/internal/domain"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

const (
	defaultGasLimit     = 4_300_000
	defaultPollInterval = 500 * time.Millisecond
	defaultPollAttempts = 120
	fallbackChainID     = 31337 // local devnet default
)

type Config struct {
	RPCURL          string
	ContractAddress string
	PrivateKey      string // hex; empty selects the simulated client
	GasLimit        uint64
	PollInterval    time.Duration
	PollAttempts    int
}

// backend is the slice of ethclient.Client the live client uses; tests
// substitute a fake.
type backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// New dials the node and returns a live client, or the simulated client when
// no private key is configured.
func New(ctx context.Context, cfg Config, log *zap.Logger) (domain.LedgerClient, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(cfg.PrivateKey) == "" {
		log.Warn("no signing key configured, ledger operations will be simulated")
		return NewSimulated(log), nil
	}

	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial ledger node: %w", err)
	}
	return newClient(ctx, eth, cfg, log)
}

type Client struct {
	backend      backend
	contractAddr common.Address
	priv         *ecdsa.PrivateKey
	from         common.Address
	chainID      *big.Int
	gasLimit     uint64
	pollInterval time.Duration
	pollAttempts int
	log          *zap.Logger
}

func newClient(ctx context.Context, be backend, cfg Config, log *zap.Logger) (*Client, error) {
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse issuer private key: %w", err)
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}

	c := &Client{
		backend:      be,
		contractAddr: common.HexToAddress(cfg.ContractAddress),
		priv:         priv,
		from:         crypto.PubkeyToAddress(priv.PublicKey),
		gasLimit:     cfg.GasLimit,
		pollInterval: cfg.PollInterval,
		pollAttempts: cfg.PollAttempts,
		log:          log,
	}
	if c.gasLimit == 0 {
		c.gasLimit = defaultGasLimit
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}
	if c.pollAttempts <= 0 {
		c.pollAttempts = defaultPollAttempts
	}

	chainID, err := be.ChainID(ctx)
	if err != nil {
		log.Warn("could not read chain id, using devnet default", zap.Error(err))
		chainID = big.NewInt(fallbackChainID)
	}
	c.chainID = chainID

	code, err := be.CodeAt(ctx, c.contractAddr, nil)
	if err != nil {
		log.Warn("could not check contract code", zap.Error(err))
	} else if len(code) == 0 {
		log.Error("no contract code at configured address",
			zap.String("address", cfg.ContractAddress))
	}

	log.Info("ledger client ready",
		zap.String("issuer", c.from.Hex()),
		zap.String("contract", c.contractAddr.Hex()),
		zap.Uint64("chain_id", chainID.Uint64()))
	return c, nil
}

func (c *Client) Simulated() bool { return false }

func (c *Client) Mint(ctx context.Context, ownerAddress, metadataURI, metadataHash string) (domain.MintResult, error) {
	if !common.IsHexAddress(ownerAddress) {
		return domain.MintResult{}, fmt.Errorf("%w: owner address %q", domain.ErrValidation, ownerAddress)
	}
	hash := normalizeHash32(metadataHash, c.log)
	data, err := contract.Pack("mint", common.HexToAddress(ownerAddress), metadataURI, hash)
	if err != nil {
		return domain.MintResult{}, fmt.Errorf("encode mint call: %w", err)
	}

	receipt, err := c.submitAndWait(ctx, data)
	if err != nil {
		return domain.MintResult{}, err
	}

	tokenID, err := c.extractTokenID(ctx, receipt)
	if err != nil {
		return domain.MintResult{}, err
	}
	c.log.Info("mint confirmed",
		zap.Uint64("token_id", tokenID),
		zap.String("tx", receipt.TxHash.Hex()))
	return domain.MintResult{
		TokenID:         tokenID,
		TransactionHash: receipt.TxHash.Hex(),
	}, nil
}

func (c *Client) Revoke(ctx context.Context, tokenID uint64) (domain.RevokeResult, error) {
	data, err := contract.Pack("revoke", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return domain.RevokeResult{}, fmt.Errorf("encode revoke call: %w", err)
	}
	receipt, err := c.submitAndWait(ctx, data)
	if err != nil {
		return domain.RevokeResult{}, err
	}
	c.log.Info("revoke confirmed",
		zap.Uint64("token_id", tokenID),
		zap.String("tx", receipt.TxHash.Hex()))
	return domain.RevokeResult{TransactionHash: receipt.TxHash.Hex()}, nil
}

func (c *Client) Verify(ctx context.Context, tokenID uint64, metadataHash string) (bool, error) {
	hash := normalizeHash32(metadataHash, c.log)
	out, err := c.call(ctx, "verify", new(big.Int).SetUint64(tokenID), hash)
	if err != nil {
		return false, err
	}
	result, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("verify returned unexpected type %T", out[0])
	}
	return result, nil
}

func (c *Client) IsRevoked(ctx context.Context, tokenID uint64) (bool, error) {
	out, err := c.call(ctx, "isRevoked", new(big.Int).SetUint64(tokenID))
	if err != nil {
		// Some contract revisions revert reads on revoked tokens instead
		// of answering; that still means revoked.
		if errors.Is(err, domain.ErrTokenRevoked) {
			return true, nil
		}
		return false, err
	}
	revoked, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("isRevoked returned unexpected type %T", out[0])
	}
	return revoked, nil
}

func (c *Client) OwnerOf(ctx context.Context, tokenID uint64) (string, error) {
	out, err := c.call(ctx, "ownerOf", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return "", err
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return "", fmt.Errorf("ownerOf returned unexpected type %T", out[0])
	}
	return addr.Hex(), nil
}

func (c *Client) AnchorHash(ctx context.Context, tokenID uint64) (string, error) {
	out, err := c.call(ctx, "getMetaHash", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return "", err
	}
	hash, ok := out[0].([32]byte)
	if !ok {
		return "", fmt.Errorf("getMetaHash returned unexpected type %T", out[0])
	}
	return hashToHex(hash), nil
}

func (c *Client) call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encode %s call: %w", method, err)
	}
	raw, err := c.backend.CallContract(ctx, ethereum.CallMsg{
		From: c.from,
		To:   &c.contractAddr,
		Data: data,
	}, nil)
	if err != nil {
		return nil, reclassifyReadError(err)
	}
	out, err := contract.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s result: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return out, nil
}

// submitAndWait signs and sends a write transaction, then polls for its
// receipt. Exhausting the poll budget is a timeout fault, a mined receipt
// with a failure status is a reverted fault; callers can tell them apart.
func (c *Client) submitAndWait(ctx context.Context, data []byte) (*types.Receipt, error) {
	nonce, err := c.backend.PendingNonceAt(ctx, c.from)
	if err != nil {
		return nil, fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      c.gasLimit,
		To:       &c.contractAddr,
		Value:    big.NewInt(0),
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.priv)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("submit transaction: %w", err)
	}

	receipt, err := c.waitMined(ctx, signed.Hash())
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: tx %s", domain.ErrLedgerReverted, signed.Hash().Hex())
	}
	return receipt, nil
}

func (c *Client) waitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= c.pollAttempts; attempt++ {
		receipt, err := c.backend.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			// Transient query error: retry, but it still burns an attempt.
			c.log.Warn("receipt query failed, retrying",
				zap.String("tx", txHash.Hex()),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		if attempt == c.pollAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: tx %s: %v", domain.ErrLedgerTimeout, txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
	return nil, fmt.Errorf("%w: tx %s not mined after %d attempts", domain.ErrLedgerTimeout, txHash.Hex(), c.pollAttempts)
}
