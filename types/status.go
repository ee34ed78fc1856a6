package types

type ServerStatus struct {
	Status          string `json:"status"`
	ServerVersion   string `json:"serverVersion"`
	ChainID         uint64 `json:"chainId"`
	ContractAddress string `json:"contractAddress"`
	BountyCount     uint64 `json:"bountyCount"`
	LastRefresh     int64  `json:"lastRefresh"`
}
