package content

// picture is the built-in image, one string per row, '#' for a lit pixel.
var picture = []string{
	"                                                                ",
	"                                                                ",
	"                                                                ",
	"                                                                ",
	"                                                                ",
	"       #####                                      #####         ",
	"        ######                                  ######          ",
	"         ######                                ######           ",
	"           ####                                ####             ",
	"           #####                              #####             ",
	"          ######                              ######            ",
	" #        ######                              ######        #   ",
	" ##      #######                              #######      ##   ",
	" ###    ########                              ########    ###   ",
	" ####  ##########                            ##########  ####   ",
	"  #################                        #################    ",
	"  ##################                      ##################    ",
	"   ##################       ######       ##################     ",
	"    ##################   ############   ##################      ",
	"      ###############  ################  ###############        ",
	"            ########  ##################  ########              ",
	"             ######  #################### #######               ",
	"              ##### ###################### #####                ",
	"               ###  ######################  ###                 ",
	"                 # ######################## ##                  ",
	"                  ##########################                    ",
	"                  ##########################                    ",
	"                  ##########################                    ",
	"                 ############################                   ",
	"                 ######    ########    ######                   ",
	"                 #####      ######      #####                   ",
	"                 ####        ####        ####                   ",
	"                 ####       ######       ####                   ",
	"                 ####      ########      ####                   ",
	"                 ####    ############    ####                   ",
	"                 ####   ##############   ####                   ",
	"                 ##### ################ #####                   ",
	"                 ############## #############                   ",
	"                  ############  ############                    ",
	"                  ############  ############                    ",
	"               ##  ###########  ###########  ##                 ",
	"              #### ######################## ####                ",
	"             #####  ######################  #####               ",
	"            #######  ####################  #######              ",
	"      ############## #################### ##############        ",
	"    #################  ################  #################      ",
	"   ##################  ################  ##################     ",
	"  ##################   ################   ##################    ",
	"  ################     ##### #### #####     ################    ",
	" ####  ##########       ###   ##   ###       ##########  ####   ",
	" ###    ########                              ########    ###   ",
	" ##      #######                              #######      ##   ",
	" #        ######                              ######        #   ",
	"           #####                              #####             ",
	"           #####                              #####             ",
	"          #####                                #####            ",
	"         ######                                ######           ",
	"        ######                                  ######          ",
	"       #####                                      #####         ",
	"                                                                ",
	"                                                                ",
	"                                                                ",
	"                                                                ",
}
