package vultr

// Instance is a Vultr compute instance.
type Instance struct {
	ID               string   `json:"id"`
	MainIP           string   `json:"main_ip"`
	VCPUCount        int      `json:"vcpu_count"`
	RAM              int      `json:"ram"`
	Disk             int      `json:"disk"`
	Region           string   `json:"region"`
	Plan             string   `json:"plan"`
	OS               string   `json:"os"`
	OSID             int      `json:"os_id"`
	Status           string   `json:"status"`
	PowerStatus      string   `json:"power_status"`
	ServerStatus     string   `json:"server_status"`
	AllowedBandwidth float64  `json:"allowed_bandwidth"`
	Label            string   `json:"label"`
	Hostname         string   `json:"hostname"`
	DateCreated      string   `json:"date_created"`
	DefaultPassword  string   `json:"default_password,omitempty"`
	InternalIP       string   `json:"internal_ip"`
	Tags             []string `json:"tags,omitempty"`
}

// Ready reports whether the instance is installed, powered and healthy.
func (i *Instance) Ready() bool {
	return i.Status == "active" && i.PowerStatus == "running" && i.ServerStatus == "ok"
}

// AddressAssigned reports whether MainIP holds a routable address.
func (i *Instance) AddressAssigned() bool {
	return i.MainIP != "" && i.MainIP != "0.0.0.0"
}

// CreateInstanceRequest is the body of POST /instances.
type CreateInstanceRequest struct {
	Region          string   `json:"region"`
	Plan            string   `json:"plan"`
	OSID            int      `json:"os_id"`
	Label           string   `json:"label,omitempty"`
	Hostname        string   `json:"hostname,omitempty"`
	EnableIPv6      bool     `json:"enable_ipv6"`
	Backups         string   `json:"backups"`
	DDOSProtection  bool     `json:"ddos_protection"`
	ActivationEmail bool     `json:"activation_email"`
	Tags            []string `json:"tags,omitempty"`
	UserData        string   `json:"user_data,omitempty"`
}

// Region is a datacenter location.
type Region struct {
	ID        string   `json:"id"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
	Continent string   `json:"continent"`
	Options   []string `json:"options"`
}

// Plan is a purchasable instance size.
type Plan struct {
	ID          string   `json:"id"`
	VCPUCount   int      `json:"vcpu_count"`
	RAM         int      `json:"ram"`
	Disk        int      `json:"disk"`
	Bandwidth   int      `json:"bandwidth"`
	MonthlyCost float64  `json:"monthly_cost"`
	Type        string   `json:"type"`
	Locations   []string `json:"locations"`
}

// OS is an installable operating system image.
type OS struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Arch   string `json:"arch"`
	Family string `json:"family"`
}

// Account is the billing summary.
type Account struct {
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	Balance           float64 `json:"balance"`
	PendingCharges    float64 `json:"pending_charges"`
	LastPaymentDate   string  `json:"last_payment_date"`
	LastPaymentAmount float64 `json:"last_payment_amount"`
}
