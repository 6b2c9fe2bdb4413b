package ledger

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"tarledger/internal/domain"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// Well-known devnet key, never used outside tests.
const testPrivateKey = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

const testContractAddr = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

type receiptStep struct {
	receipt *types.Receipt
	err     error
}

type fakeBackend struct {
	chainID  *big.Int
	code     []byte
	nonce    uint64
	gasPrice *big.Int

	sendErr   error
	sentTxs   []*types.Transaction
	steps     []receiptStep
	stepIndex int

	callFn    func(data []byte) ([]byte, error)
	callCount int
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	if f.chainID == nil {
		return big.NewInt(31337), nil
	}
	return f.chainID, nil
}

func (f *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	if f.code == nil {
		return []byte{0x60}, nil
	}
	return f.code, nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	if f.gasPrice == nil {
		return big.NewInt(1_000_000_000), nil
	}
	return f.gasPrice, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sentTxs = append(f.sentTxs, tx)
	return nil
}

func (f *fakeBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	if f.stepIndex >= len(f.steps) {
		return nil, ethereum.NotFound
	}
	step := f.steps[f.stepIndex]
	f.stepIndex++
	return step.receipt, step.err
}

func (f *fakeBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.callCount++
	if f.callFn == nil {
		return nil, errors.New("no call handler")
	}
	return f.callFn(call.Data)
}

func newTestClient(t *testing.T, be *fakeBackend) *Client {
	t.Helper()
	c, err := newClient(context.Background(), be, Config{
		ContractAddress: testContractAddr,
		PrivateKey:      testPrivateKey,
		PollInterval:    time.Millisecond,
		PollAttempts:    3,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func successReceipt(txHash common.Hash, logs []*types.Log) *types.Receipt {
	return &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		TxHash: txHash,
		Logs:   logs,
	}
}

func mintedLog(tokenID uint64) *types.Log {
	return &types.Log{
		Topics: []common.Hash{
			contract.Events["Minted"].ID,
			common.BigToHash(new(big.Int).SetUint64(tokenID)),
			common.HexToHash("0xaaaa"),
			common.HexToHash("0xbbbb"),
		},
	}
}

func transferFromZeroLog(tokenID uint64) *types.Log {
	return &types.Log{
		Topics: []common.Hash{
			contract.Events["Transfer"].ID,
			common.Hash{},
			common.HexToHash("0xaaaa"),
			common.BigToHash(new(big.Int).SetUint64(tokenID)),
		},
	}
}

func TestMint_ExtractsTokenIDFromMintedEvent(t *testing.T) {
	be := &fakeBackend{}
	c := newTestClient(t, be)
	be.steps = []receiptStep{
		{err: ethereum.NotFound},
		{receipt: successReceipt(common.HexToHash("0x01"), []*types.Log{mintedLog(42)})},
	}

	result, err := c.Mint(context.Background(), "0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa", "store://doc1", "ff")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if result.TokenID != 42 {
		t.Fatalf("token id = %d, want 42", result.TokenID)
	}
	if len(be.sentTxs) != 1 {
		t.Fatalf("sent %d transactions, want 1", len(be.sentTxs))
	}
}

func TestMint_FallsBackToTransferEvent(t *testing.T) {
	be := &fakeBackend{}
	c := newTestClient(t, be)
	be.steps = []receiptStep{
		{receipt: successReceipt(common.HexToHash("0x02"), []*types.Log{transferFromZeroLog(7)})},
	}

	result, err := c.Mint(context.Background(), "0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa", "store://doc1", "ff")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if result.TokenID != 7 {
		t.Fatalf("token id = %d, want 7", result.TokenID)
	}
}

func TestMint_FallsBackToTotalSupply(t *testing.T) {
	be := &fakeBackend{}
	c := newTestClient(t, be)
	be.steps = []receiptStep{
		{receipt: successReceipt(common.HexToHash("0x03"), nil)},
	}
	be.callFn = func([]byte) ([]byte, error) {
		return contract.Methods["totalSupply"].Outputs.Pack(big.NewInt(13))
	}

	result, err := c.Mint(context.Background(), "0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa", "store://doc1", "ff")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if result.TokenID != 12 {
		t.Fatalf("token id = %d, want 12", result.TokenID)
	}
}

func TestMint_ExtractionFaultWhenNothingMatches(t *testing.T) {
	be := &fakeBackend{}
	c := newTestClient(t, be)
	be.steps = []receiptStep{
		{receipt: successReceipt(common.HexToHash("0x04"), nil)},
	}
	be.callFn = func([]byte) ([]byte, error) {
		return nil, errors.New("totalSupply unavailable")
	}

	_, err := c.Mint(context.Background(), "0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa", "store://doc1", "ff")
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("err = %v, want ErrExtraction", err)
	}
}

func TestMint_TimeoutFaultWhenPollBudgetExhausted(t *testing.T) {
	be := &fakeBackend{}
	c := newTestClient(t, be)
	// No steps: every poll answers not-found.

	_, err := c.Mint(context.Background(), "0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa", "store://doc1", "ff")
	if !errors.Is(err, domain.ErrLedgerTimeout) {
		t.Fatalf("err = %v, want ErrLedgerTimeout", err)
	}
	if errors.Is(err, domain.ErrLedgerReverted) {
		t.Fatal("timeout must not be classified as reverted")
	}
}

func TestMint_RevertedFaultOnFailureStatus(t *testing.T) {
	be := &fakeBackend{}
	c := newTestClient(t, be)
	be.steps = []receiptStep{
		{receipt: &types.Receipt{Status: types.ReceiptStatusFailed, TxHash: common.HexToHash("0x05")}},
	}

	_, err := c.Mint(context.Background(), "0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa", "store://doc1", "ff")
	if !errors.Is(err, domain.ErrLedgerReverted) {
		t.Fatalf("err = %v, want ErrLedgerReverted", err)
	}
	if errors.Is(err, domain.ErrLedgerTimeout) {
		t.Fatal("reverted must not be classified as timeout")
	}
}

func TestMint_TransientQueryErrorsCountAgainstBudget(t *testing.T) {
	be := &fakeBackend{}
	c := newTestClient(t, be)
	be.steps = []receiptStep{
		{err: errors.New("connection reset")},
		{err: errors.New("connection reset")},
		{receipt: successReceipt(common.HexToHash("0x06"), []*types.Log{mintedLog(9)})},
	}

	result, err := c.Mint(context.Background(), "0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa", "store://doc1", "ff")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if result.TokenID != 9 {
		t.Fatalf("token id = %d, want 9", result.TokenID)
	}
}

func TestMint_CancelledContextYieldsTimeoutFault(t *testing.T) {
	be := &fakeBackend{}
	c := newTestClient(t, be)
	c.pollInterval = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Mint(ctx, "0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa", "store://doc1", "ff")
	if !errors.Is(err, domain.ErrLedgerTimeout) {
		t.Fatalf("err = %v, want ErrLedgerTimeout", err)
	}
}

func TestIsRevoked_RevertStringReclassified(t *testing.T) {
	be := &fakeBackend{}
	c := newTestClient(t, be)
	be.callFn = func([]byte) ([]byte, error) {
		return nil, errors.New("execution reverted: TokenRevoked(3)")
	}

	revoked, err := c.IsRevoked(context.Background(), 3)
	if err != nil {
		t.Fatalf("isRevoked: %v", err)
	}
	if !revoked {
		t.Fatal("TokenRevoked revert must read as revoked=true")
	}
}

func TestOwnerOf_NotFoundReclassified(t *testing.T) {
	be := &fakeBackend{}
	c := newTestClient(t, be)
	be.callFn = func([]byte) ([]byte, error) {
		return nil, errors.New("execution reverted: ERC721NonexistentToken(99)")
	}

	_, err := c.OwnerOf(context.Background(), 99)
	if !errors.Is(err, domain.ErrTokenNotFound) {
		t.Fatalf("err = %v, want ErrTokenNotFound", err)
	}
}

func TestOwnerOf_RevokedReclassified(t *testing.T) {
	be := &fakeBackend{}
	c := newTestClient(t, be)
	be.callFn = func([]byte) ([]byte, error) {
		return nil, errors.New("execution reverted: TokenRevoked(3)")
	}

	_, err := c.OwnerOf(context.Background(), 3)
	if !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("err = %v, want ErrTokenRevoked", err)
	}
}

func TestVerify_DecodesBool(t *testing.T) {
	be := &fakeBackend{}
	c := newTestClient(t, be)
	be.callFn = func([]byte) ([]byte, error) {
		return contract.Methods["verify"].Outputs.Pack(true)
	}

	ok, err := c.Verify(context.Background(), 42, "ff")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("verify = false, want true")
	}
}

func TestAnchorHash_DecodesBytes32(t *testing.T) {
	be := &fakeBackend{}
	c := newTestClient(t, be)
	var stored [32]byte
	stored[0] = 0xab
	be.callFn = func([]byte) ([]byte, error) {
		return contract.Methods["getMetaHash"].Outputs.Pack(stored)
	}

	got, err := c.AnchorHash(context.Background(), 42)
	if err != nil {
		t.Fatalf("anchorHash: %v", err)
	}
	if got[:2] != "ab" || len(got) != 64 {
		t.Fatalf("anchor hash = %s", got)
	}
}
