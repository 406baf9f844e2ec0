package base_test

import (
	"testing"

	"billbridge/internal/provider"
	"billbridge/internal/provider/base"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhoneValidator(t *testing.T) {
	t.Parallel()

	v := base.NewPhoneValidator("NG")

	t.Run("accepts international and local formats", func(t *testing.T) {
		t.Parallel()

		for _, phone := range []string{"2348012345678", "08012345678", "07098765432"} {
			got, err := v.ValidatePhone(phone)
			require.NoError(t, err, phone)
			assert.Equal(t, phone, got)
		}
	})

	t.Run("normalizes spacing and plus prefix", func(t *testing.T) {
		t.Parallel()

		got, err := v.ValidatePhone("+234 801 234 5678")
		require.NoError(t, err)
		assert.Equal(t, "2348012345678", got)
	})

	t.Run("rejects malformed numbers", func(t *testing.T) {
		t.Parallel()

		for _, phone := range []string{"12345", "0601234567", "23480123456789"} {
			_, err := v.ValidatePhone(phone)
			assert.Error(t, err, phone)
		}
	})
}

func TestAmountValidator(t *testing.T) {
	t.Parallel()

	v := base.NewAmountValidator("NGN", 50, 500000)

	assert.NoError(t, v.ValidateAmount(50))
	assert.NoError(t, v.ValidateAmount(500000))
	assert.Error(t, v.ValidateAmount(0))
	assert.Error(t, v.ValidateAmount(-100))
	assert.Error(t, v.ValidateAmount(49))
	assert.Error(t, v.ValidateAmount(500001))
}

func TestBillRequestValidator(t *testing.T) {
	t.Parallel()

	v := base.NewBillRequestValidator("NG", "NGN", 50, 500000)

	t.Run("provider and customer are always required", func(t *testing.T) {
		t.Parallel()

		err := v.ValidatePayment(&provider.BillPaymentRequest{
			Category: provider.CategoryAirtime, CustomerID: "08012345678", Amount: 100,
		})
		assert.Error(t, err)

		err = v.ValidatePayment(&provider.BillPaymentRequest{
			Category: provider.CategoryAirtime, Provider: "MTN", Amount: 100,
		})
		assert.Error(t, err)
	})

	t.Run("airtime normalizes the phone in place", func(t *testing.T) {
		t.Parallel()

		req := provider.BillPaymentRequest{
			Category:   provider.CategoryAirtime,
			Provider:   "MTN",
			CustomerID: "+234 801 234 5678",
			Amount:     500,
		}
		require.NoError(t, v.ValidatePayment(&req))
		assert.Equal(t, "2348012345678", req.CustomerID)
	})

	t.Run("data requires a plan code", func(t *testing.T) {
		t.Parallel()

		req := provider.BillPaymentRequest{
			Category:   provider.CategoryData,
			Provider:   "GLO",
			CustomerID: "08012345678",
		}
		assert.Error(t, v.ValidatePayment(&req))

		req.PlanCode = "GLO-1GB"
		assert.NoError(t, v.ValidatePayment(&req))
	})

	t.Run("tv requires a package code", func(t *testing.T) {
		t.Parallel()

		req := provider.BillPaymentRequest{
			Category:   provider.CategoryTV,
			Provider:   "DSTV",
			CustomerID: "1234567890",
		}
		assert.Error(t, v.ValidatePayment(&req))

		req.PlanCode = "DSTV-COMPACT"
		assert.NoError(t, v.ValidatePayment(&req))
	})

	t.Run("electricity requires amount and meter type", func(t *testing.T) {
		t.Parallel()

		req := provider.BillPaymentRequest{
			Category:   provider.CategoryElectricity,
			Provider:   "IKEDC",
			CustomerID: "45021234567",
			Amount:     5000,
		}
		assert.Error(t, v.ValidatePayment(&req))

		req.MeterType = "prepaid"
		assert.NoError(t, v.ValidatePayment(&req))

		req.MeterType = "smart"
		assert.Error(t, v.ValidatePayment(&req))
	})
}
