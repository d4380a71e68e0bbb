// Command giga is a small CLI front end onto the giga public API: list
// the devices the process discovered, and run a small element-wise add
// as a smoke test.
package main

import (
	"fmt"
	"os"

	"github.com/giga-project/giga/giga"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("giga %s\n", version)
	case "devices":
		runDevices()
	case "demo":
		runDemo()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("giga - Generic Interface Generic Accelerator")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  devices    List discovered devices")
	fmt.Println("  demo       Run an element-wise add on the default device")
}

func runDevices() {
	def := giga.GetDefaultDevice()
	for _, d := range giga.ListDevices() {
		marker := " "
		if d.ID == def {
			marker = "*"
		}
		fmt.Printf("%s [%d] %s\n", marker, d.ID, d.Name)
	}
}

// runDemo allocates two rank-1 F32 tensors of 4 elements, adds them
// element-wise on the default device, and prints the result
// ("result: 11 22 33 44"), run end to end through the public entry points.
func runDemo() {
	dev := giga.GetDefaultDevice()
	if code := giga.InitializeDevice(dev); code != giga.Success {
		fail("initialize device", code)
	}

	a, code := giga.AllocateTensor(dev, 0, 0, giga.F32, 0, []int{4})
	if code != giga.Success {
		fail("allocate a", code)
	}
	b, code := giga.AllocateTensor(dev, 0, 16, giga.F32, 0, []int{4})
	if code != giga.Success {
		fail("allocate b", code)
	}
	out, code := giga.AllocateTensor(dev, 0, 32, giga.F32, 0, []int{4})
	if code != giga.Success {
		fail("allocate out", code)
	}

	if code := giga.CopyToTensor(a, f32Bytes(1, 2, 3, 4), giga.F32, 0); code != giga.Success {
		fail("copy a", code)
	}
	if code := giga.CopyToTensor(b, f32Bytes(10, 20, 30, 40), giga.F32, 0); code != giga.Success {
		fail("copy b", code)
	}
	if code := giga.Add(a, b, out); code != giga.Success {
		fail("add", code)
	}

	buf := make([]byte, 16)
	if code := giga.CopyFromTensor(out, buf, giga.F32, 0); code != giga.Success {
		fail("copy out", code)
	}
	fmt.Print("result:")
	for i := 0; i < 4; i++ {
		fmt.Printf(" %v", readF32(buf, i))
	}
	fmt.Println()

	giga.ReleaseTensor(a)
	giga.ReleaseTensor(b)
	giga.ReleaseTensor(out)
}

func fail(step string, code giga.ErrorCode) {
	fmt.Fprintf(os.Stderr, "giga: %s: %s\n", step, code)
	os.Exit(1)
}
