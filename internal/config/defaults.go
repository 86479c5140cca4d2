package config

const (
	defaultSerialDevice      = "/dev/serial0"
	defaultBaudRate          = 115200
	defaultReadTimeoutMS     = 200
	defaultHelloTimeoutMS    = 2000
	defaultDrainLimit        = 4096
	defaultSysfsRoot         = "/sys/class/gpio"
	defaultLidPin            = 4
	defaultHeloOutPin        = 17
	defaultHeloInPin         = 27
	defaultStoryDir          = "~/pizzabox/story"
	defaultSFXDir            = "~/pizzabox/sounds"
	defaultRecordingsDir     = "/media/usb0"
	defaultStorageMarkerName = ".stick"
	defaultLogDir            = "~/.local/share/pizzabox/logs"
	defaultLedgerPath        = "~/.local/share/pizzabox/sessions.db"
	defaultLockPath          = "~/.local/share/pizzabox/pizzabox.lock"
	defaultPlayer            = "aplay"
	defaultRecorder          = "arecord"
	defaultVideoTool         = "libcamera-vid"
	defaultStillTool         = "libcamera-still"
	defaultFFmpeg            = "ffmpeg"
	defaultFFprobe           = "ffprobe"
	defaultSampleRate        = 44100
	defaultRotation          = "1"
	defaultStoryboard        = "builtin:showcase"
	defaultLanguage          = "de"
	defaultMinFreeMiB        = 512
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
)

// defaultKeystone maps the frame corners onto the projected scroll area for
// ffmpeg's perspective filter, in x0:y0:x1:y1:x2:y2:x3:y3 order.
var defaultKeystone = []string{"0", "0", "W", "0", "0", "H", "W", "H"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Serial: Serial{
			Device:         defaultSerialDevice,
			BaudRate:       defaultBaudRate,
			ReadTimeoutMS:  defaultReadTimeoutMS,
			HelloTimeoutMS: defaultHelloTimeoutMS,
			DrainLimit:     defaultDrainLimit,
		},
		GPIO: GPIO{
			SysfsRoot:    defaultSysfsRoot,
			LidPin:       defaultLidPin,
			LidActiveLow: true,
			HeloOutPin:   defaultHeloOutPin,
			HeloInPin:    defaultHeloInPin,
		},
		Paths: Paths{
			StoryDir:      defaultStoryDir,
			SFXDir:        defaultSFXDir,
			RecordingsDir: defaultRecordingsDir,
			LogDir:        defaultLogDir,
			LedgerPath:    defaultLedgerPath,
			LockPath:      defaultLockPath,
		},
		Media: Media{
			Player:       defaultPlayer,
			Recorder:     defaultRecorder,
			Video:        defaultVideoTool,
			Still:        defaultStillTool,
			FFmpeg:       defaultFFmpeg,
			FFprobe:      defaultFFprobe,
			SampleRate:   defaultSampleRate,
			VideoWidth:   1920,
			VideoHeight:  1080,
			PhotoWidth:   2592,
			PhotoHeight:  1944,
			Keystone:     append([]string(nil), defaultKeystone...),
			Rotation:     defaultRotation,
			DeleteSource: true,
		},
		Story: Story{
			Storyboard:      defaultStoryboard,
			Languages:       []string{"de", "en"},
			DefaultLanguage: defaultLanguage,
			LanguageSelect:  true,
			Move:            true,
		},
		Session: Session{
			MinFreeMiB: defaultMinFreeMiB,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
