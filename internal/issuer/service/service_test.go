package service

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"

	"pdtoken/internal/audit"
	"pdtoken/internal/issuer/models"
	"pdtoken/internal/issuer/registry"
	"pdtoken/internal/issuer/store/cooldown"
	"pdtoken/internal/ledger"
	"pdtoken/internal/platform/chain"
	"pdtoken/pkg/chainctx"
	"pdtoken/pkg/domain"
	dErrors "pdtoken/pkg/domain-errors"
)

const (
	termLength   = uint64(100)
	thresholdPct = uint64(95)
)

var (
	controllerAddr = addr(0xFF)
	issuerA        = addr(0x0A)
	issuerB        = addr(0x0B)
	issuerC        = addr(0x0C)
	holderX        = addr(0xD1)
	holderY        = addr(0xD2)
)

func addr(n byte) domain.Address {
	return domain.Address(fmt.Sprintf("0x%040x", n))
}

type ServiceSuite struct {
	suite.Suite
	svc       *Service
	clock     *chain.Manual
	ledger    *ledger.Memory
	cooldowns *cooldown.InMemory
	sink      *audit.MemoryStore
	floor     *big.Int
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.floor = big.NewInt(1_000_000)
	s.clock = chain.NewManual(0)
	s.ledger = ledger.NewMemory()
	s.cooldowns = cooldown.NewInMemory()
	s.sink = audit.NewMemoryStore()

	params := models.Params{
		Controller:           controllerAddr,
		MaxIssuers:           3,
		TermLength:           termLength,
		BaseFactor:           500,
		SupplyFloor:          new(big.Int).Set(s.floor),
		CooldownThresholdPct: thresholdPct,
	}
	reg, err := registry.New(params, s.cooldowns)
	s.Require().NoError(err)

	s.svc, err = New(reg, s.ledger, s.clock, params,
		WithAuditPublisher(audit.NewPublisher(s.sink)),
	)
	s.Require().NoError(err)
}

// as builds a request context for the given caller at the clock's height.
func (s *ServiceSuite) as(caller domain.Address) context.Context {
	ctx := chainctx.WithCaller(context.Background(), caller)
	return chainctx.WithHeight(ctx, s.clock.Height())
}

func (s *ServiceSuite) authorize(addr domain.Address) *models.IssuerRecord {
	s.T().Helper()
	rec, err := s.svc.AuthorizeIssuer(s.as(controllerAddr), addr)
	s.Require().NoError(err)
	return rec
}

func (s *ServiceSuite) TestBootstrapMint() {
	s.authorize(issuerA)

	s.Run("first mint against zero supply creates exactly the floor", func() {
		res, err := s.svc.Mint(s.as(issuerA), holderX, big.NewInt(12345))
		s.Require().NoError(err)
		s.Zero(s.floor.Cmp(res.Amount), "bootstrap ignores the requested amount")
		s.Zero(s.floor.Cmp(s.ledger.TotalSupply(context.Background())))
		s.Zero(s.floor.Cmp(s.ledger.BalanceOf(context.Background(), holderX)))
		s.Equal(uint64(1), res.Record.MintCount)
		s.Zero(s.floor.Cmp(res.Record.TotalMinted))
	})

	s.Run("the bootstrap leaves an activity event", func() {
		events, err := s.sink.ListByIssuer(context.Background(), issuerA.String())
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(audit.ActionIssuerActivity, events[0].Action)
		s.Equal(s.floor.String(), events[0].Minted)
	})
}

func (s *ServiceSuite) TestMintGuardOrder() {
	s.authorize(issuerA)

	s.Run("unknown caller fails on authorization first", func() {
		_, err := s.svc.Mint(s.as(issuerB), domain.ZeroAddress, nil)
		s.Require().ErrorIs(err, models.ErrNotAuthorized)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("expired caller fails on expiration before target checks", func() {
		s.clock.SetHeight(termLength)
		_, err := s.svc.Mint(s.as(issuerA), domain.ZeroAddress, nil)
		s.Require().ErrorIs(err, models.ErrTermExpired)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ServiceSuite) TestMintReceivers() {
	s.authorize(issuerA)

	s.Run("the zero account cannot receive", func() {
		_, err := s.svc.Mint(s.as(issuerA), domain.ZeroAddress, big.NewInt(1))
		s.Require().ErrorIs(err, models.ErrInvalidReceiver)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("the controller cannot receive", func() {
		_, err := s.svc.Mint(s.as(issuerA), controllerAddr, big.NewInt(1))
		s.Require().ErrorIs(err, models.ErrInvalidReceiver)
	})

	s.Run("minting to the issuer itself is allowed", func() {
		_, err := s.svc.Mint(s.as(issuerA), issuerA, big.NewInt(1))
		s.Require().NoError(err)
	})
}

func (s *ServiceSuite) TestMintCeiling() {
	s.authorize(issuerA)
	s.authorize(issuerB)

	// Bootstrap through A so B keeps a clean history.
	_, err := s.svc.Mint(s.as(issuerA), holderX, big.NewInt(1))
	s.Require().NoError(err)

	s.Run("a fresh issuer may mint up to the base factor of supply", func() {
		max, err := s.svc.MaxMintable(s.as(issuerB), issuerB)
		s.Require().NoError(err)
		// 5% of the floor.
		s.Equal(big.NewInt(50_000).String(), max.String())

		res, err := s.svc.Mint(s.as(issuerB), holderY, max)
		s.Require().NoError(err)
		s.Zero(max.Cmp(res.Amount))
	})

	s.Run("one unit past the ceiling is rejected", func() {
		max, err := s.svc.MaxMintable(s.as(issuerB), issuerB)
		s.Require().NoError(err)
		over := new(big.Int).Add(max, big.NewInt(1))
		_, err = s.svc.Mint(s.as(issuerB), holderY, over)
		s.Require().ErrorIs(err, models.ErrExceedsMintFactor)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("non-positive requests are rejected once supply exists", func() {
		_, err := s.svc.Mint(s.as(issuerB), holderY, big.NewInt(0))
		s.Require().ErrorIs(err, models.ErrNonPositiveAmount)
		_, err = s.svc.Mint(s.as(issuerB), holderY, nil)
		s.Require().ErrorIs(err, models.ErrNonPositiveAmount)
	})

	s.Run("the issuer's own history lowers its ceiling", func() {
		factorA, err := s.svc.MintFactor(s.as(issuerA), issuerA)
		s.Require().NoError(err)
		factorB, err := s.svc.MintFactor(s.as(issuerB), issuerB)
		s.Require().NoError(err)
		s.Less(factorA, factorB, "the bootstrap minter carries heavy history")
	})
}

func (s *ServiceSuite) TestFloorTopUp() {
	s.authorize(issuerA)
	s.authorize(issuerB)
	_, err := s.svc.Mint(s.as(issuerA), holderX, big.NewInt(1))
	s.Require().NoError(err)

	// Burn below the floor, then check a small mint is topped up. The fresh
	// issuer does the minting; the bootstrap issuer's history has already
	// consumed its own headroom.
	s.Require().NoError(s.ledger.Transfer(s.as(issuerA), holderX, issuerA, big.NewInt(600_000)))
	_, err = s.svc.Burn(s.as(issuerA), big.NewInt(600_000))
	s.Require().NoError(err)
	s.Equal(big.NewInt(400_000).String(), s.ledger.TotalSupply(context.Background()).String())

	res, err := s.svc.Mint(s.as(issuerB), holderX, big.NewInt(10))
	s.Require().NoError(err)
	// requested 10 plus the shortfall to the floor.
	s.Equal(big.NewInt(600_000).String(), res.Amount.String())
	s.Zero(s.floor.Cmp(s.ledger.TotalSupply(context.Background())))
}

func (s *ServiceSuite) TestBurn() {
	s.authorize(issuerA)
	_, err := s.svc.Mint(s.as(issuerA), issuerA, big.NewInt(1))
	s.Require().NoError(err)

	s.Run("burns the caller's own balance and records history", func() {
		rec, err := s.svc.Burn(s.as(issuerA), big.NewInt(1000))
		s.Require().NoError(err)
		s.Equal(uint64(1), rec.BurnCount)
		s.Equal(big.NewInt(1000).String(), rec.TotalBurned.String())
	})

	s.Run("cannot burn more than held", func() {
		held := s.ledger.BalanceOf(context.Background(), issuerA)
		over := new(big.Int).Add(held, big.NewInt(1))
		_, err := s.svc.Burn(s.as(issuerA), over)
		s.Require().ErrorIs(err, ledger.ErrInsufficientBalance)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("non-issuers cannot burn", func() {
		_, err := s.svc.Burn(s.as(holderX), big.NewInt(1))
		s.Require().ErrorIs(err, models.ErrNotAuthorized)
	})
}

func (s *ServiceSuite) TestBurnFrom() {
	s.authorize(issuerA)
	_, err := s.svc.Mint(s.as(issuerA), holderX, big.NewInt(1))
	s.Require().NoError(err)
	s.Require().NoError(s.ledger.Approve(s.as(holderX), holderX, issuerA, big.NewInt(5000)))

	s.Run("spends allowance and burns the account's balance", func() {
		rec, err := s.svc.BurnFrom(s.as(issuerA), holderX, big.NewInt(3000))
		s.Require().NoError(err)
		s.Equal(big.NewInt(3000).String(), rec.TotalBurned.String())
		s.Equal(big.NewInt(2000).String(), s.ledger.Allowance(context.Background(), holderX, issuerA).String())
	})

	s.Run("exceeding the allowance fails", func() {
		_, err := s.svc.BurnFrom(s.as(issuerA), holderX, big.NewInt(2001))
		s.Require().ErrorIs(err, ledger.ErrInsufficientAllowance)
	})

	s.Run("a short balance fails before the allowance is spent", func() {
		s.Require().NoError(s.ledger.Approve(s.as(holderY), holderY, issuerA, big.NewInt(100)))
		_, err := s.svc.BurnFrom(s.as(issuerA), holderY, big.NewInt(100))
		s.Require().ErrorIs(err, ledger.ErrInsufficientBalance)
		s.Equal(big.NewInt(100).String(), s.ledger.Allowance(context.Background(), holderY, issuerA).String())
	})
}

func (s *ServiceSuite) TestEarlyExitCooldown() {
	s.authorize(issuerA)
	s.clock.SetHeight(10)

	s.Run("early self-exit succeeds and starts the cooldown", func() {
		s.Require().NoError(s.svc.DeauthorizeIssuer(s.as(issuerA), issuerA))
		until, ok, err := s.cooldowns.Until(context.Background(), issuerA)
		s.Require().NoError(err)
		s.True(ok)
		s.Equal(termLength, until)
	})

	s.Run("re-authorization during the cooldown is rejected", func() {
		s.clock.SetHeight(50)
		_, err := s.svc.AuthorizeIssuer(s.as(controllerAddr), issuerA)
		s.Require().ErrorIs(err, models.ErrCooldownActive)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("re-authorization at the original expiration succeeds", func() {
		s.clock.SetHeight(termLength)
		rec, err := s.svc.AuthorizeIssuer(s.as(controllerAddr), issuerA)
		s.Require().NoError(err)
		s.Equal(termLength, rec.StartBlock)
		s.Zero(rec.MintCount, "a fresh term starts with clean statistics")
	})
}

func (s *ServiceSuite) TestSweepExpired() {
	s.authorize(issuerA)
	s.authorize(issuerB)
	s.clock.SetHeight(50)
	s.authorize(issuerC)

	s.Run("only ripe terms are swept", func() {
		s.clock.SetHeight(termLength)
		removed, err := s.svc.DeauthorizeAllExpired(s.as(controllerAddr))
		s.Require().NoError(err)
		s.ElementsMatch([]domain.Address{issuerA, issuerB}, removed)
		s.Equal([]domain.Address{issuerC}, s.svc.Issuers(context.Background()))
	})

	s.Run("each removal leaves its own audit event", func() {
		for _, issuer := range []domain.Address{issuerA, issuerB} {
			events, err := s.sink.ListByIssuer(context.Background(), issuer.String())
			s.Require().NoError(err)
			s.Require().Len(events, 2, "authorized plus deauthorized")
			s.Equal(audit.ActionIssuerDeauthorized, events[1].Action)
		}
	})

	s.Run("sweeping down to an empty registry works", func() {
		s.clock.SetHeight(200)
		removed, err := s.svc.DeauthorizeAllExpired(s.as(controllerAddr))
		s.Require().NoError(err)
		s.Equal([]domain.Address{issuerC}, removed)
		s.Empty(s.svc.Issuers(context.Background()))
	})

	s.Run("swept identities carry no cooldown", func() {
		_, ok, err := s.cooldowns.Until(context.Background(), issuerA)
		s.Require().NoError(err)
		s.False(ok)
	})
}

func (s *ServiceSuite) TestTransferAuthorization() {
	s.authorize(issuerA)
	_, err := s.svc.Mint(s.as(issuerA), holderX, big.NewInt(1))
	s.Require().NoError(err)
	factorBefore, err := s.svc.MintFactor(s.as(issuerA), issuerA)
	s.Require().NoError(err)
	s.clock.SetHeight(10)

	s.Run("the successor inherits record and ceiling alike", func() {
		rec, err := s.svc.TransferAuthorization(s.as(issuerA), issuerB)
		s.Require().NoError(err)
		s.Equal(issuerB, rec.Address)
		s.Equal(0, rec.Position)
		s.Equal(uint64(1), rec.MintCount)
		s.Equal(termLength, rec.ExpirationBlock, "the term window does not reset")

		factorAfter, err := s.svc.MintFactor(s.as(issuerB), issuerB)
		s.Require().NoError(err)
		s.Equal(factorBefore, factorAfter)
	})

	s.Run("the predecessor is out and cooling down", func() {
		s.Equal([]domain.Address{issuerB}, s.svc.Issuers(context.Background()))
		_, err := s.svc.AuthorizeIssuer(s.as(controllerAddr), issuerA)
		s.Require().ErrorIs(err, models.ErrCooldownActive)
	})

	s.Run("a non-member cannot transfer", func() {
		_, err := s.svc.TransferAuthorization(s.as(issuerC), holderX)
		s.Require().ErrorIs(err, models.ErrNotAuthorized)
	})
}

func (s *ServiceSuite) TestCapReached() {
	s.authorize(issuerA)
	s.authorize(issuerB)
	s.authorize(issuerC)

	_, err := s.svc.AuthorizeIssuer(s.as(controllerAddr), holderX)
	s.Require().ErrorIs(err, models.ErrCapReached)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	s.Run("a freed slot can be refilled", func() {
		s.Require().NoError(s.svc.DeauthorizeIssuer(s.as(issuerB), issuerB))
		rec, err := s.svc.AuthorizeIssuer(s.as(controllerAddr), holderX)
		s.Require().NoError(err)
		// issuerB's slot was back-filled by issuerC, so the newcomer appends.
		s.Equal(2, rec.Position)
	})
}

func (s *ServiceSuite) TestQueries() {
	s.authorize(issuerA)
	s.clock.SetHeight(50)
	s.authorize(issuerB)

	s.Run("expired issuers reflect the context height", func() {
		s.clock.SetHeight(termLength)
		s.Equal([]domain.Address{issuerA}, s.svc.ExpiredIssuers(s.as(controllerAddr)))
	})

	s.Run("reads are idempotent", func() {
		first := s.svc.ExpiredIssuers(s.as(controllerAddr))
		second := s.svc.ExpiredIssuers(s.as(controllerAddr))
		s.Equal(first, second)
		s.Len(s.svc.Issuers(context.Background()), 2)
	})

	s.Run("records for unknown identities are refused", func() {
		_, err := s.svc.Record(context.Background(), issuerC)
		s.Require().ErrorIs(err, models.ErrNotAuthorized)
		_, err = s.svc.MintFactor(context.Background(), issuerC)
		s.Require().ErrorIs(err, models.ErrNotAuthorized)
	})
}

func (s *ServiceSuite) TestClockFallback() {
	// Without a stamped height the service reads its wired clock.
	s.clock.SetHeight(30)
	ctx := chainctx.WithCaller(context.Background(), controllerAddr)
	rec, err := s.svc.AuthorizeIssuer(ctx, issuerA)
	s.Require().NoError(err)
	s.Equal(uint64(30), rec.StartBlock)
}
