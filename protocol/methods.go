package protocol

// Method names a native capability. The set is fixed; custom is the escape hatch.
type Method string

const (
	MethodGetDeviceInfo     Method = "getDeviceInfo"
	MethodShowToast         Method = "showToast"
	MethodOpenNativeScreen  Method = "openNativeScreen"
	MethodShare             Method = "share"
	MethodGetLocation       Method = "getLocation"
	MethodRequestPermission Method = "requestPermission"
	MethodVibrate           Method = "vibrate"
	MethodCopyToClipboard   Method = "copyToClipboard"
	MethodGetAppVersion     Method = "getAppVersion"
	MethodCloseApp          Method = "closeApp"
	MethodCustom            Method = "custom"
)

// Methods lists every method in the enumeration.
var Methods = []Method{
	MethodGetDeviceInfo,
	MethodShowToast,
	MethodOpenNativeScreen,
	MethodShare,
	MethodGetLocation,
	MethodRequestPermission,
	MethodVibrate,
	MethodCopyToClipboard,
	MethodGetAppVersion,
	MethodCloseApp,
	MethodCustom,
}

// Valid reports whether m belongs to the enumeration.
func (m Method) Valid() bool {
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}

func (m Method) String() string {
	return string(m)
}

// Platform tags the host environment of the web content.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformWeb     Platform = "web"
)

// DeviceInfo is the getDeviceInfo payload.
type DeviceInfo struct {
	Platform     Platform `json:"platform"`
	OSVersion    string   `json:"osVersion"`
	AppVersion   string   `json:"appVersion"`
	DeviceModel  string   `json:"deviceModel"`
	ScreenWidth  float64  `json:"screenWidth"`
	ScreenHeight float64  `json:"screenHeight"`
	IsTablet     bool     `json:"isTablet"`
}

// LocationInfo is the getLocation payload.
type LocationInfo struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Altitude  *float64 `json:"altitude,omitempty"`
}

// ShareOptions are the share params.
type ShareOptions struct {
	Title string   `json:"title,omitempty"`
	Text  string   `json:"text,omitempty"`
	URL   string   `json:"url,omitempty"`
	Files []string `json:"files,omitempty"`
}

// PermissionType is a requestPermission tag.
type PermissionType string

const (
	PermissionCamera        PermissionType = "camera"
	PermissionLocation      PermissionType = "location"
	PermissionStorage       PermissionType = "storage"
	PermissionContacts      PermissionType = "contacts"
	PermissionMicrophone    PermissionType = "microphone"
	PermissionNotifications PermissionType = "notifications"
)

// ParsePermission maps a tag onto a PermissionType.
func ParsePermission(tag string) (PermissionType, bool) {
	switch p := PermissionType(tag); p {
	case PermissionCamera, PermissionLocation, PermissionStorage,
		PermissionContacts, PermissionMicrophone, PermissionNotifications:
		return p, true
	default:
		return "", false
	}
}

// PermissionStatus is the outcome of a permission request.
type PermissionStatus string

const (
	StatusGranted       PermissionStatus = "granted"
	StatusDenied        PermissionStatus = "denied"
	StatusNeverAskAgain PermissionStatus = "never_ask_again"
)

// PermissionResult is the requestPermission payload.
type PermissionResult struct {
	Status PermissionStatus `json:"status"`
}

// CustomResult is the default payload of the custom method.
type CustomResult struct {
	Method   string `json:"method"`
	Executed bool   `json:"executed"`
}
