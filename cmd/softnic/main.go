// Command softnic runs the network interface driver and its companion
// tools.
//
// Usage:
//
//	softnic run                       # start the driver
//	softnic consume                   # drain the receive ring
//	softnic inject <device-dir> <hex> # put a frame on the simulated wire
//	softnic transmit <hex>            # send a frame through the driver
//	softnic capture <device-dir>      # print frames the driver sent
package main

func main() {
	Execute()
}
