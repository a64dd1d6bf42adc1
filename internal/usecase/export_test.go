package usecase

import "time"

// SetEntitlementClock pins the clock of a use case built by NewEntitlementUseCase.
func SetEntitlementClock(uc EntitlementUseCase, now func() time.Time) {
	uc.(*entitlementUC).now = now
}
