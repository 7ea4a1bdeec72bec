package enum

import "strings"

type VendorEnum string

const (
	JNT_EXPRESS VendorEnum = "jntexpress"
	PAXEL       VendorEnum = "paxel"
	LION        VendorEnum = "lion"
	SAP         VendorEnum = "sap"
	GOSEND      VendorEnum = "gosend"
	JNT_CARGO   VendorEnum = "jntcargo"
	ID_EXPRESS  VendorEnum = "idexpress"
	POS         VendorEnum = "pos"
)

// PayloadKind groups vendors whose cost responses share one shape.
type PayloadKind string

const (
	PAYLOAD_JNT_LIST     PayloadKind = "jnt_list"
	PAYLOAD_PAXEL        PayloadKind = "paxel"
	PAYLOAD_FLAT         PayloadKind = "flat"
	PAYLOAD_GOSEND       PayloadKind = "gosend"
	PAYLOAD_SERVICE_LIST PayloadKind = "service_list"
)

type vendorSpec struct {
	prefix      string
	kind        PayloadKind
	displayName string
}

var vendorSpecs = map[VendorEnum]vendorSpec{
	JNT_EXPRESS: {prefix: "jnt", kind: PAYLOAD_JNT_LIST, displayName: "J&T Express"},
	PAXEL:       {prefix: "paxel", kind: PAYLOAD_PAXEL, displayName: "Paxel"},
	LION:        {prefix: "lion", kind: PAYLOAD_FLAT, displayName: "Lion Parcel"},
	SAP:         {prefix: "sap", kind: PAYLOAD_FLAT, displayName: "SAP Express"},
	GOSEND:      {prefix: "gosend", kind: PAYLOAD_GOSEND, displayName: "GoSend"},
	JNT_CARGO:   {prefix: "jntcargo", kind: PAYLOAD_JNT_LIST, displayName: "J&T Cargo"},
	ID_EXPRESS:  {prefix: "idexpress", kind: PAYLOAD_SERVICE_LIST, displayName: "ID Express"},
	POS:         {prefix: "pos", kind: PAYLOAD_SERVICE_LIST, displayName: "POS Indonesia"},
}

var vendorByPrefix = func() map[string]VendorEnum {
	m := make(map[string]VendorEnum, len(vendorSpecs))
	for v, s := range vendorSpecs {
		m[s.prefix] = v
	}
	return m
}()

// AllVendors lists every supported courier in a stable order.
func AllVendors() []VendorEnum {
	return []VendorEnum{JNT_EXPRESS, PAXEL, LION, SAP, GOSEND, JNT_CARGO, ID_EXPRESS, POS}
}

func (v VendorEnum) ToString() string {
	if _, ok := vendorSpecs[v]; ok {
		return string(v)
	}
	return ""
}

func (v VendorEnum) IsValid() bool {
	_, ok := vendorSpecs[v]
	return ok
}

// Prefix is the leading segment of every ShippingOption id from this vendor.
func (v VendorEnum) Prefix() string {
	return vendorSpecs[v].prefix
}

func (v VendorEnum) PayloadKind() PayloadKind {
	return vendorSpecs[v].kind
}

func (v VendorEnum) DisplayName() string {
	return vendorSpecs[v].displayName
}

// OptionID builds "<prefix>-<service>" with the service lower-cased.
func (v VendorEnum) OptionID(service string) string {
	service = strings.ToLower(strings.TrimSpace(service))
	service = strings.Join(strings.Fields(service), "-")
	if service == "" {
		service = "regular"
	}
	return v.Prefix() + "-" + service
}

// VendorFromOptionID resolves the vendor from the text before the first "-".
func VendorFromOptionID(id string) (VendorEnum, bool) {
	prefix, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(id)), "-")
	v, ok := vendorByPrefix[prefix]
	return v, ok
}

type FlowEnum string

const (
	FLOW_REGULAR FlowEnum = "regular"
	FLOW_MULTI   FlowEnum = "multi"
	FLOW_ALL     FlowEnum = "all"
)

func (f FlowEnum) ToString() string {
	switch f {
	case FLOW_REGULAR, FLOW_MULTI, FLOW_ALL:
		return string(f)
	}
	return ""
}

func (f FlowEnum) IsValid() bool {
	return f.ToString() != ""
}

// Vendors returns the fixed courier subset queried by a dashboard page.
func (f FlowEnum) Vendors() []VendorEnum {
	switch f {
	case FLOW_REGULAR:
		return []VendorEnum{JNT_EXPRESS, PAXEL, LION}
	case FLOW_MULTI:
		return []VendorEnum{GOSEND, JNT_CARGO, ID_EXPRESS, POS}
	case FLOW_ALL:
		return AllVendors()
	}
	return nil
}
