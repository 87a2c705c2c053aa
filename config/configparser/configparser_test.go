package configparser

import "testing"

var testOptions []Option
var testDevNum uint16
var testValue string
var testType string

func resetTest() {
	testOptions = []Option{}
	testDevNum = NoDev
	testValue = "error"
	testType = ""
}

func cleanUpConfig() {
	models = map[string]modelDef{}
	resetTest()
}

func modDevice(devNum uint16, value string, options []Option) error {
	testDevNum, testValue, testType, testOptions = devNum, value, "model", options
	return nil
}

func modSwitch(devNum uint16, value string, options []Option) error {
	testDevNum, testValue, testType, testOptions = devNum, value, "switch", options
	return nil
}

func modOption(devNum uint16, value string, options []Option) error {
	testDevNum, testValue, testType, testOptions = devNum, value, "option", options
	return nil
}

func TestRegisterModel(t *testing.T) {
	cleanUpConfig()

	RegisterModel("testdev", TypeModel, modDevice)
	fTest := FirstOption{devNum: 0x100, isAddr: true, value: "test"}
	if err := createModel("test", &fTest, nil); err == nil {
		t.Error("create non-existent model succeeded")
	}
	if err := createModel("testdev", &fTest, nil); err != nil {
		t.Errorf("unable to create model: %v", err)
	}
	if testDevNum != 0x100 {
		t.Errorf("device number = %#x, want 0x100", testDevNum)
	}
	if err := createSwitch("testdev"); err == nil {
		t.Error("create device as switch succeeded")
	}
}

func TestRegisterSwitch(t *testing.T) {
	cleanUpConfig()

	RegisterSwitch("testswitch", modSwitch)
	if err := createSwitch("test"); err == nil {
		t.Error("create non-existent switch succeeded")
	}
	if err := createSwitch("testswitch"); err != nil {
		t.Errorf("unable to create switch: %v", err)
	}
	fTest := FirstOption{devNum: 0x100, isAddr: true, value: "test"}
	if err := createModel("testswitch", &fTest, nil); err == nil {
		t.Error("create switch as model succeeded")
	}
}

func TestRegisterOption(t *testing.T) {
	cleanUpConfig()

	fTest := FirstOption{devNum: 0x100, isAddr: false, value: "test"}
	RegisterOption("testoption", modOption)
	if err := createOption("test", &fTest); err == nil {
		t.Error("create non-existent option succeeded")
	}
	if err := createOption("testoption", &fTest); err != nil {
		t.Errorf("unable to create option: %v", err)
	}
	if testDevNum != NoDev {
		t.Errorf("option number = %#x, want NoDev", testDevNum)
	}
	if testValue != "test" {
		t.Errorf("option value = %q, want %q", testValue, "test")
	}
	if err := createModel("testoption", &fTest, nil); err == nil {
		t.Error("create option as model succeeded")
	}
}

func TestParseLineSwitch(t *testing.T) {
	cleanUpConfig()
	RegisterSwitch("ram", modSwitch)

	line := optionLine{line: "RAM", pos: 0}
	if err := line.parseLine(); err != nil {
		t.Errorf("parseLine failed on a bare switch: %v", err)
	}
	if testType != "switch" {
		t.Error("parseLine did not create a switch")
	}

	resetTest()
	line = optionLine{line: "RAM 0100", pos: 0}
	if err := line.parseLine(); err == nil {
		t.Error("parseLine accepted an address on a switch")
	}
}

func TestParseLineOption(t *testing.T) {
	cleanUpConfig()
	RegisterOption("IPL", modOption)

	line := optionLine{line: "IPL 2000  # boot vector", pos: 0}
	if err := line.parseLine(); err != nil {
		t.Errorf("parseLine failed to parse an option plus comment: %v", err)
	}
	if testType != "option" {
		t.Error("parseLine did not create an option")
	}
	if testDevNum != NoDev {
		t.Errorf("option set a device number (%#x), want NoDev", testDevNum)
	}
	if testValue != "2000" {
		t.Errorf("option value = %q, want %q", testValue, "2000")
	}

	resetTest()
	line = optionLine{line: "IPL", pos: 0}
	if err := line.parseLine(); err == nil {
		t.Error("parseLine accepted an option with no argument")
	}
}

func TestParseLineModelWithOptions(t *testing.T) {
	cleanUpConfig()
	RegisterModel("testdevice", TypeModel, modDevice)

	line := optionLine{line: "testdevice 0100 name=eth0", pos: 0}
	if err := line.parseLine(); err != nil {
		t.Errorf("parseLine failed on a model with options: %v", err)
	}
	if testType != "model" {
		t.Error("parseLine did not create a model")
	}
	if testDevNum != 0x100 {
		t.Errorf("device number = %#x, want 0x100", testDevNum)
	}
	if len(testOptions) != 1 || testOptions[0].Name != "name" {
		t.Fatalf("options = %+v, want one option named %q", testOptions, "name")
	}
}
