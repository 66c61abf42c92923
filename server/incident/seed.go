package incident

import "time"

// SeedIncidents returns the fixed fallback incident set used when the remote
// feed is empty or unreachable. Timestamps are generated relative to the
// current time so the set always looks recent.
func SeedIncidents() []Incident {
	now := time.Now().UTC()
	return []Incident{
		{
			ID:                 "inc-001",
			Title:              "Structure Fire",
			Description:        "Report of smoke visible from the second floor of a commercial building. Potential trapped occupants.",
			Type:               TypeFire,
			Status:             StatusNew,
			Severity:           SeverityCritical,
			Location:           Coordinates{Lat: 28.6304, Lng: 77.2177},
			Address:            "Block B, Connaught Place, New Delhi",
			Timestamp:          now.Format(time.RFC3339),
			ReportingParty:     "Shop Owner",
			AssignedServiceIDs: []string{},
		},
		{
			ID:                 "inc-002",
			Title:              "Multi-Vehicle Collision",
			Description:        "Three car collision on the Ring Road. One vehicle overturned. Fluids leaking.",
			Type:               TypeTraffic,
			Status:             StatusNew,
			Severity:           SeverityHigh,
			Location:           Coordinates{Lat: 28.5680, Lng: 77.2100},
			Address:            "Ring Road near AIIMS Flyover, New Delhi",
			Timestamp:          now.Add(-15 * time.Minute).Format(time.RFC3339),
			ReportingParty:     "Traffic Police",
			AssignedServiceIDs: []string{},
		},
		{
			ID:                 "inc-003",
			Title:              "Medical Emergency",
			Description:        "45-year-old male experiencing chest pains and difficulty breathing. History of heart issues.",
			Type:               TypeMedical,
			Status:             StatusDispatched,
			Severity:           SeverityHigh,
			Location:           Coordinates{Lat: 28.5700, Lng: 77.2300},
			Address:            "A-Block, Defence Colony, New Delhi",
			Timestamp:          now.Add(-30 * time.Minute).Format(time.RFC3339),
			ReportingParty:     "Family Member",
			AssignedServiceIDs: []string{"svc-102"},
		},
		{
			ID:                 "inc-004",
			Title:              "Suspicious Package",
			Description:        "Unattended bag left in metro station platform. CISF informed.",
			Type:               TypePolice,
			Status:             StatusNew,
			Severity:           SeverityMedium,
			Location:           Coordinates{Lat: 28.6328, Lng: 77.2197},
			Address:            "Rajiv Chowk Metro Station, Gate 4",
			Timestamp:          now.Add(-5 * time.Minute).Format(time.RFC3339),
			ReportingParty:     "Station Controller",
			AssignedServiceIDs: []string{},
		},
	}
}

// SeedServices returns the static emergency service roster loaded at
// activation. Unit state changes only through assignment operations.
func SeedServices() []EmergencyService {
	return []EmergencyService{
		{ID: "svc-101", Name: "Fire Tender 101", Type: TypeFire, Status: ServiceAvailable, Location: Coordinates{Lat: 28.6400, Lng: 77.2100}},
		{ID: "svc-102", Name: "Ambulance 52", Type: TypeMedical, Status: ServiceBusy, Location: Coordinates{Lat: 28.5700, Lng: 77.2300}, AssignedIncidentID: "inc-003"},
		{ID: "svc-103", Name: "PCR Van 22", Type: TypePolice, Status: ServiceAvailable, Location: Coordinates{Lat: 28.6350, Lng: 77.2250}},
		{ID: "svc-104", Name: "Hazmat Unit 1", Type: TypeHazmat, Status: ServiceAvailable, Location: Coordinates{Lat: 28.6100, Lng: 77.2400}},
	}
}

// SeedAlerts returns the static alert notices shown alongside the seed
// incidents.
func SeedAlerts() []Alert {
	now := time.Now().UTC()
	return []Alert{
		{ID: "alt-1", Message: "New critical fire reported at Block B, Connaught Place", Severity: SeverityCritical, Timestamp: now.Format(time.RFC3339), RelatedIncidentID: "inc-001"},
		{ID: "alt-2", Message: "Traffic congestion increasing on Ring Road", Severity: SeverityLow, Timestamp: now.Add(-10 * time.Minute).Format(time.RFC3339)},
	}
}
