package models

// Statistics are the aggregates the API computes for a search scope.
type Statistics struct {
	Total               StatisticsItem   `json:"total"`
	Execution           StatisticsItem   `json:"execution"`
	Pending             StatisticsItem   `json:"pending"`
	Interrupted         StatisticsItem   `json:"interrupted"`
	Procedures          StatisticsItem   `json:"procedures"`
	Completed           StatisticsItem   `json:"completed"`
	Transfer            StatisticsItem   `json:"transfer"`
	TransferInExecution StatisticsItem   `json:"transferInExecution"`
	CompletedBiddings   StatisticsItem   `json:"completedBiddings"`
	CompletedContracts  StatisticsItem   `json:"completedContracts"`
	TopTenOrgans        []TopTenOrgan    `json:"topTenOrgans"`
	Counterpart         CounterpartStats `json:"counterpart"`
	Trimesters          []float64        `json:"trimesters"`
}

type StatisticsItem struct {
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

type TopTenOrgan struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// CounterpartStats counts agreements per counterpart kind.
type CounterpartStats struct {
	Financial         float64 `json:"financial"`
	AssetsAndServices float64 `json:"assetsAndServices"`
	Empty             float64 `json:"empty"`
}

// PendingAgreement is an entry of the pending-agreements ranking.
type PendingAgreement struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// AgreementsResponse is the payload of every agreement search endpoint.
type AgreementsResponse struct {
	Statistics Statistics  `json:"statistics"`
	Agreements []Agreement `json:"agreements"`
}
