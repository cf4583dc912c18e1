package domain

type FuelType string

const (
	FuelTypePetrol FuelType = "petrol"
	FuelTypeDiesel FuelType = "diesel"
	FuelTypeCNG    FuelType = "cng"
)

type NozzleStatus string

const (
	NozzleStatusActive   NozzleStatus = "active"
	NozzleStatusInactive NozzleStatus = "inactive"
)

type Nozzle struct {
	ID        int64        `json:"id"`
	TenantID  int64        `json:"tenant_id"`
	StationID int64        `json:"station_id"`
	PumpID    int64        `json:"pump_id"`
	FuelType  FuelType     `json:"fuel_type"`
	Status    NozzleStatus `json:"status"`
}

func (n *Nozzle) IsActive() bool {
	return n.Status == NozzleStatusActive
}
